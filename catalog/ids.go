package catalog

import (
	"errors"
	"fmt"
	"strings"
)

const defaultEncoding = "UTF-8"

var (
	ErrInvalidLocale = errors.New("invalid locale")
	ErrInvalidKeymap = errors.New("invalid keymap")
)

// LocaleID identifies a locale in the form language[_TERRITORY][.encoding].
type LocaleID struct {
	Language  string
	Territory string
	Encoding  string
}

// DefaultLocaleID is used whenever no locale was configured.
func DefaultLocaleID() LocaleID {
	return LocaleID{Language: "en", Territory: "US", Encoding: defaultEncoding}
}

// ParseLocaleID parses values like "en", "en_US" or "es_ES.UTF-8".
// The encoding defaults to UTF-8 when omitted.
func ParseLocaleID(value string) (LocaleID, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return LocaleID{}, fmt.Errorf("%w: empty value", ErrInvalidLocale)
	}

	id := LocaleID{Encoding: defaultEncoding}

	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		id.Encoding = raw[idx+1:]
		raw = raw[:idx]
		if id.Encoding == "" {
			return LocaleID{}, fmt.Errorf("%w: %q has an empty encoding", ErrInvalidLocale, value)
		}
	}

	language, territory, hasTerritory := strings.Cut(raw, "_")
	if !isLanguageCode(language) {
		return LocaleID{}, fmt.Errorf("%w: %q has no valid language code", ErrInvalidLocale, value)
	}
	id.Language = language

	if hasTerritory {
		if !isTerritoryCode(territory) {
			return LocaleID{}, fmt.Errorf("%w: %q has no valid territory code", ErrInvalidLocale, value)
		}
		id.Territory = territory
	}

	return id, nil
}

// MustParseLocaleID is ParseLocaleID for values known at compile time.
func MustParseLocaleID(value string) LocaleID {
	id, err := ParseLocaleID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// Code returns the identifier without the encoding, e.g. "en_US".
func (l LocaleID) Code() string {
	if l.Territory == "" {
		return l.Language
	}
	return l.Language + "_" + l.Territory
}

func (l LocaleID) String() string {
	if l.Encoding == "" {
		return l.Code()
	}
	return l.Code() + "." + l.Encoding
}

// Tag returns the BCP 47 form understood by golang.org/x/text, e.g. "en-US".
func (l LocaleID) Tag() string {
	if l.Territory == "" {
		return l.Language
	}
	return l.Language + "-" + l.Territory
}

func (l LocaleID) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LocaleID) UnmarshalText(text []byte) error {
	id, err := ParseLocaleID(string(text))
	if err != nil {
		return err
	}
	*l = id
	return nil
}

// KeymapID identifies a keyboard layout with an optional variant: "us", "cz(qwerty)".
type KeymapID struct {
	Layout  string
	Variant string
}

// ParseKeymapID parses a keymap identifier. Errors wrap ErrInvalidKeymap.
func ParseKeymapID(value string) (KeymapID, error) {
	layout, rest, hasVariant := strings.Cut(value, "(")
	if !isKeymapToken(layout) {
		return KeymapID{}, fmt.Errorf("%w: %q", ErrInvalidKeymap, value)
	}

	if !hasVariant {
		return KeymapID{Layout: layout}, nil
	}

	variant, ok := strings.CutSuffix(rest, ")")
	if !ok || !isKeymapToken(variant) {
		return KeymapID{}, fmt.Errorf("%w: %q", ErrInvalidKeymap, value)
	}

	return KeymapID{Layout: layout, Variant: variant}, nil
}

func (k KeymapID) String() string {
	if k.Variant == "" {
		return k.Layout
	}
	return k.Layout + "(" + k.Variant + ")"
}

// DashedString is the form used by console keymaps, e.g. "cz-qwerty".
func (k KeymapID) DashedString() string {
	if k.Variant == "" {
		return k.Layout
	}
	return k.Layout + "-" + k.Variant
}

func (k KeymapID) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *KeymapID) UnmarshalText(text []byte) error {
	id, err := ParseKeymapID(string(text))
	if err != nil {
		return err
	}
	*k = id
	return nil
}

func isLanguageCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isTerritoryCode(s string) bool {
	switch len(s) {
	case 2:
		for _, r := range s {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	case 3:
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isKeymapToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
