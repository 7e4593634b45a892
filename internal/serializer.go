// Package internal holds helpers shared by the queue and events packages.
package internal

import (
	"encoding/json"
	"errors"
)

// Marshal encodes a message payload. Raw bytes and strings pass through untouched,
// everything else is encoded as JSON.
func Marshal(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(payload)
	}
}

// Unmarshal decodes data into holder, which must be a pointer.
func Unmarshal(data []byte, holder any) error {
	switch v := holder.(type) {
	case nil:
		return errors.New("cannot unmarshal into nil holder")
	case *[]byte:
		*v = append((*v)[:0], data...)
		return nil
	case *json.RawMessage:
		*v = append((*v)[:0], data...)
		return nil
	case *string:
		*v = string(data)
		return nil
	default:
		return json.Unmarshal(data, holder)
	}
}
