package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	LocalesFile   = "locales.yaml"
	TimezonesFile = "timezones.yaml"
	KeymapsFile   = "keymaps.yaml"
)

//go:embed data/*.yaml
var embeddedData embed.FS

type localesDocument struct {
	Locales []struct {
		ID        string `yaml:"id"`
		Language  string `yaml:"language"`
		Territory string `yaml:"territory"`
	} `yaml:"locales"`
}

type timezonesDocument struct {
	Timezones []struct {
		Code      string `yaml:"code"`
		Territory string `yaml:"territory"`
		Country   string `yaml:"country"`
	} `yaml:"timezones"`
}

type keymapsDocument struct {
	Keymaps []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
	} `yaml:"keymaps"`
}

// LoadDefault loads the catalogs shipped with the binary.
func LoadDefault() (*Catalogs, error) {
	sub, err := fs.Sub(embeddedData, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads catalogs from dir. Files missing from dir fall back to the
// embedded defaults; files that exist but cannot be parsed are an error.
func LoadDir(dir string) (*Catalogs, error) {
	if dir == "" {
		return LoadDefault()
	}

	defaults, err := fs.Sub(embeddedData, "data")
	if err != nil {
		return nil, err
	}

	return Load(&overlayFS{primary: os.DirFS(dir), fallback: defaults})
}

// Load reads the three catalog files from fsys.
func Load(fsys fs.FS) (*Catalogs, error) {
	locales, err := loadLocales(fsys)
	if err != nil {
		return nil, err
	}

	timezones, err := loadTimezones(fsys)
	if err != nil {
		return nil, err
	}

	keymaps, err := loadKeymaps(fsys)
	if err != nil {
		return nil, err
	}

	return &Catalogs{
		Locales:   locales,
		Timezones: timezones,
		Keymaps:   keymaps,
	}, nil
}

func loadLocales(fsys fs.FS) (*Catalog[LocaleEntry], error) {
	var doc localesDocument
	if err := decodeFile(fsys, LocalesFile, &doc); err != nil {
		return nil, err
	}

	entries := make([]LocaleEntry, 0, len(doc.Locales))
	for _, l := range doc.Locales {
		id, err := ParseLocaleID(l.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", LocalesFile, err)
		}
		entries = append(entries, LocaleEntry{ID: id, Language: l.Language, Territory: l.Territory})
	}

	return New("locales", entries, WithNormalizer(normalizeLocale))
}

func loadTimezones(fsys fs.FS) (*Catalog[TimezoneEntry], error) {
	var doc timezonesDocument
	if err := decodeFile(fsys, TimezonesFile, &doc); err != nil {
		return nil, err
	}

	entries := make([]TimezoneEntry, 0, len(doc.Timezones))
	for _, tz := range doc.Timezones {
		if tz.Code == "" {
			return nil, fmt.Errorf("%s: timezone without code", TimezonesFile)
		}
		entries = append(entries, TimezoneEntry{
			Code:      tz.Code,
			Parts:     timezoneParts(tz.Code),
			Country:   tz.Country,
			territory: tz.Territory,
		})
	}

	return New("timezones", entries)
}

func loadKeymaps(fsys fs.FS) (*Catalog[KeymapEntry], error) {
	var doc keymapsDocument
	if err := decodeFile(fsys, KeymapsFile, &doc); err != nil {
		return nil, err
	}

	entries := make([]KeymapEntry, 0, len(doc.Keymaps))
	for _, k := range doc.Keymaps {
		id, err := ParseKeymapID(k.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeymapsFile, err)
		}
		entries = append(entries, KeymapEntry{ID: id, Description: k.Description})
	}

	return New("keymaps", entries, WithNormalizer(normalizeKeymap))
}

func decodeFile(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", name, err)
	}

	if err = yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not parse %s: %w", name, err)
	}
	return nil
}

// overlayFS serves files from primary and falls back to fallback when absent.
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o *overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return nil, err
}
