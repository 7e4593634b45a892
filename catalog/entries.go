package catalog

import (
	"strings"
)

// LocaleEntry describes a locale that can be installed or used for the interface.
type LocaleEntry struct {
	ID        LocaleID `json:"id"`
	Language  string   `json:"language"`
	Territory string   `json:"territory"`
}

func (e LocaleEntry) Key() string {
	return e.ID.String()
}

// TimezoneEntry describes a timezone. Parts holds a label for every segment
// of the code, e.g. ["Europe", "Berlin"] for "Europe/Berlin".
type TimezoneEntry struct {
	Code    string   `json:"code"`
	Parts   []string `json:"parts"`
	Country string   `json:"country,omitempty"`

	territory string
}

func (e TimezoneEntry) Key() string {
	return e.Code
}

// Territory is the ISO 3166 code of the country the timezone belongs to, if any.
func (e TimezoneEntry) Territory() string {
	return e.territory
}

// KeymapEntry describes a keyboard layout.
type KeymapEntry struct {
	ID          KeymapID `json:"id"`
	Description string   `json:"description"`
}

func (e KeymapEntry) Key() string {
	return e.ID.String()
}

// timezoneParts splits a timezone code into readable segments.
func timezoneParts(code string) []string {
	parts := strings.Split(code, "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", " ")
	}
	return parts
}

// normalizeLocale canonicalises "en_US" to "en_US.UTF-8" so both forms match.
func normalizeLocale(code string) (string, bool) {
	id, err := ParseLocaleID(code)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func normalizeKeymap(code string) (string, bool) {
	id, err := ParseKeymapID(code)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
