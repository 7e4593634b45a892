// Package localization owns the interface language of the running process and
// the translation bundle used to label catalog entries.
package localization

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

const (
	DefaultLocale = "en_US.UTF-8"

	messageFilePrefix = "messages."
	messageFileSuffix = ".toml"
)

//go:embed translations/*.toml
var embeddedTranslations embed.FS

var ErrInvalidLocale = errors.New("invalid interface locale")

// Manager is the single place where the process-wide interface locale is
// read and switched.
type Manager interface {
	Bundle() *i18n.Bundle
	// Locale returns the active interface locale, e.g. "de_DE.UTF-8".
	Locale() string
	// SetLocale switches the active interface locale for the whole process.
	SetLocale(ctx context.Context, locale string) error
	// Translate resolves messageID in lang, returning fallback when there is no translation.
	Translate(lang string, messageID string, fallback string) string
}

type managerImpl struct {
	bundle    *i18n.Bundle
	exportEnv bool

	mu     sync.RWMutex
	locale string
}

// Option configures a Manager.
type Option func(*managerImpl)

// WithEnvExport makes SetLocale also export LANG, so child processes inherit the language.
func WithEnvExport(export bool) Option {
	return func(m *managerImpl) {
		m.exportEnv = export
	}
}

// WithInitialLocale sets the locale active before any SetLocale call.
func WithInitialLocale(locale string) Option {
	return func(m *managerImpl) {
		if strings.TrimSpace(locale) != "" {
			m.locale = locale
		}
	}
}

// NewManager loads the embedded translations, then every messages.<lang>.toml
// found in translationsFolder (optional), which take precedence.
func NewManager(translationsFolder string, opts ...Option) (Manager, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := loadMessageFiles(bundle, embeddedTranslations, "translations"); err != nil {
		return nil, err
	}

	if translationsFolder != "" {
		if err := loadMessageFiles(bundle, os.DirFS(translationsFolder), "."); err != nil {
			return nil, err
		}
	}

	m := &managerImpl{
		bundle: bundle,
		locale: DefaultLocale,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func loadMessageFiles(bundle *i18n.Bundle, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("could not read translations: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, messageFilePrefix) || !strings.HasSuffix(name, messageFileSuffix) {
			continue
		}

		if _, err = bundle.LoadMessageFileFS(fsys, path.Join(dir, name)); err != nil {
			return fmt.Errorf("could not load translations %s: %w", name, err)
		}
	}

	return nil
}

// Bundle Access the translation bundle instantiated in the system.
func (m *managerImpl) Bundle() *i18n.Bundle {
	return m.bundle
}

func (m *managerImpl) Locale() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locale
}

func (m *managerImpl) SetLocale(ctx context.Context, locale string) error {
	if _, err := ToTag(locale); err != nil {
		return err
	}

	m.mu.Lock()
	previous := m.locale
	m.locale = locale
	m.mu.Unlock()

	if m.exportEnv {
		if err := os.Setenv("LANG", locale); err != nil {
			util.Log(ctx).WithError(err).Warn("could not export LANG for the new interface locale")
		}
	}

	util.Log(ctx).
		WithField("previous", previous).
		WithField("locale", locale).
		Info("interface locale switched")
	return nil
}

func (m *managerImpl) Translate(lang string, messageID string, fallback string) string {
	localizer := i18n.NewLocalizer(m.bundle, languageOf(lang))

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID, Other: fallback},
	})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) || translation == "" {
			return fallback
		}
	}

	return translation
}

// ToTag converts a POSIX locale such as "pt_BR.UTF-8" into a language tag.
func ToTag(locale string) (language.Tag, error) {
	code, _, _ := strings.Cut(strings.TrimSpace(locale), ".")
	code, _, _ = strings.Cut(code, "@")
	if code == "" {
		return language.Und, fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}
	return tag, nil
}

func languageOf(locale string) string {
	tag, err := ToTag(locale)
	if err != nil {
		return language.English.String()
	}
	return tag.String()
}
