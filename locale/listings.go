package locale

import (
	"github.com/pitabwire/l10n/catalog"
)

// Translator resolves a display label, returning fallback when no translation exists.
type Translator interface {
	Translate(lang string, messageID string, fallback string) string
}

// listings are the catalog entries with labels translated to one interface locale.
type listings struct {
	lang      string
	locales   []catalog.LocaleEntry
	timezones []catalog.TimezoneEntry
	keymaps   []catalog.KeymapEntry
}

func translateListings(catalogs *catalog.Catalogs, tr Translator, lang string) listings {
	locales := catalogs.Locales.Entries()
	for i, e := range locales {
		locales[i].Language = tr.Translate(lang, "language."+e.ID.Language, e.Language)
		if e.ID.Territory != "" {
			locales[i].Territory = tr.Translate(lang, "territory."+e.ID.Territory, e.Territory)
		}
	}

	timezones := catalogs.Timezones.Entries()
	for i, e := range timezones {
		parts := make([]string, len(e.Parts))
		for j, part := range e.Parts {
			parts[j] = tr.Translate(lang, "timezone."+part, part)
		}
		timezones[i].Parts = parts
		if e.Territory() != "" && e.Country != "" {
			timezones[i].Country = tr.Translate(lang, "territory."+e.Territory(), e.Country)
		}
	}

	keymaps := catalogs.Keymaps.Entries()
	for i, e := range keymaps {
		keymaps[i].Description = tr.Translate(lang, "keymap."+e.ID.String(), e.Description)
	}

	return listings{
		lang:      lang,
		locales:   locales,
		timezones: timezones,
		keymaps:   keymaps,
	}
}
