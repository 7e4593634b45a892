// Package locale holds the desired localization configuration of the system
// being installed and the manager that validates and commits changes to it.
package locale

import (
	"slices"
)

// Config is the desired localization configuration.
type Config struct {
	// Locales to install in the target system.
	Locales []string `json:"locales"`
	// Keymap for the target system.
	Keymap string `json:"keymap"`
	// Timezone for the target system.
	Timezone string `json:"timezone"`
	// UILocale is the interface language of this process. It is not related to Locales.
	UILocale string `json:"ui_locale"`
	// UIKeymap is the keyboard layout of the local graphical session.
	UIKeymap string `json:"ui_keymap"`
}

// Clone returns a copy that shares no memory with c.
func (c Config) Clone() Config {
	c.Locales = slices.Clone(c.Locales)
	return c
}

// UpdateRequest is a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	Locales  []string `json:"locales,omitempty"`
	Keymap   *string  `json:"keymap,omitempty"`
	Timezone *string  `json:"timezone,omitempty"`
	UILocale *string  `json:"ui_locale,omitempty"`
	UIKeymap *string  `json:"ui_keymap,omitempty"`
}

// IsEmpty reports whether the request names no field at all.
func (r UpdateRequest) IsEmpty() bool {
	return r.Locales == nil && r.Keymap == nil && r.Timezone == nil && r.UILocale == nil && r.UIKeymap == nil
}

// ChangeSet lists the fields applied by one successful update, absent fields omitted.
type ChangeSet struct {
	Locales  []string `json:"locales,omitempty"`
	Keymap   *string  `json:"keymap,omitempty"`
	Timezone *string  `json:"timezone,omitempty"`
	UILocale *string  `json:"ui_locale,omitempty"`
	UIKeymap *string  `json:"ui_keymap,omitempty"`
}

// Fields returns the names of the fields present in the change set, in validation order.
func (c ChangeSet) Fields() []string {
	var fields []string
	if c.Locales != nil {
		fields = append(fields, "locales")
	}
	if c.Timezone != nil {
		fields = append(fields, "timezone")
	}
	if c.Keymap != nil {
		fields = append(fields, "keymap")
	}
	if c.UILocale != nil {
		fields = append(fields, "ui_locale")
	}
	if c.UIKeymap != nil {
		fields = append(fields, "ui_keymap")
	}
	return fields
}

func ptr[T any](v T) *T {
	return &v
}
