package locale

import (
	"github.com/pitabwire/l10n/events"
)

const (
	EventConfigChanged = "L10nConfigChanged"
	EventLocaleChanged = "LocaleChanged"
)

// ConfigChanged is published once per successful update with the applied fields.
type ConfigChanged struct {
	ChangeSet
}

func (ConfigChanged) Name() string {
	return EventConfigChanged
}

// LocaleChanged is published when the interface locale is switched.
type LocaleChanged struct {
	Locale string `json:"locale"`
}

func (LocaleChanged) Name() string {
	return EventLocaleChanged
}

var (
	_ events.Event = ConfigChanged{}
	_ events.Event = LocaleChanged{}
)
