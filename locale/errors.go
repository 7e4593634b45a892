package locale

import (
	"errors"
	"fmt"
)

// Kind classifies configuration errors.
type Kind int

const (
	KindUnknownLocale Kind = iota + 1
	KindUnknownTimezone
	KindInvalidKeymap
	KindCommit
)

func (k Kind) String() string {
	switch k {
	case KindUnknownLocale:
		return "unknown locale"
	case KindUnknownTimezone:
		return "unknown timezone"
	case KindInvalidKeymap:
		return "invalid keymap"
	case KindCommit:
		return "could not apply the changes"
	default:
		return "unknown error"
	}
}

var (
	ErrUnknownLocale   = &Error{Kind: KindUnknownLocale}
	ErrUnknownTimezone = &Error{Kind: KindUnknownTimezone}
	ErrInvalidKeymap   = &Error{Kind: KindInvalidKeymap}
	ErrCommit          = &Error{Kind: KindCommit}
)

// Error names the field and offending value of a rejected update.
type Error struct {
	Kind  Kind
	Field string
	Value string
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindCommit && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case e.Value != "" || e.Field != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Value)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsValidation reports whether err was caused by the request content rather
// than by the environment.
func IsValidation(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind != KindCommit
}

func unknownLocale(field, value string) error {
	return &Error{Kind: KindUnknownLocale, Field: field, Value: value}
}

func unknownTimezone(value string) error {
	return &Error{Kind: KindUnknownTimezone, Field: "timezone", Value: value}
}

func invalidKeymap(field, value string, cause error) error {
	return &Error{Kind: KindInvalidKeymap, Field: field, Value: value, Cause: cause}
}

func commitFailed(field, value string, cause error) error {
	return &Error{Kind: KindCommit, Field: field, Value: value, Cause: cause}
}
