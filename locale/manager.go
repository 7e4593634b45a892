package locale

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/l10n/catalog"
	"github.com/pitabwire/l10n/events"
	"github.com/pitabwire/l10n/keyboard"
	"github.com/pitabwire/l10n/localization"
	"github.com/pitabwire/l10n/telemetry"
)

const (
	instrumentationName = "github.com/pitabwire/l10n/locale"

	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

var ErrNoCatalogs = errors.New("locale manager requires the reference catalogs")

// Defaults seed the configuration at start up.
type Defaults struct {
	Locale   string
	Timezone string
	Keymap   string
}

// Manager owns the desired configuration. Reads take a shared lock, updates
// hold the exclusive lock for their whole duration.
type Manager struct {
	catalogs     *catalog.Catalogs
	localization localization.Manager
	keyboard     keyboard.Applier
	publisher    events.Publisher
	defaults     Defaults

	tracer  telemetry.Tracer
	updates metric.Int64Counter

	mu       sync.RWMutex
	config   Config
	listings listings
}

type Option func(*Manager)

// WithKeyboard sets how ui_keymap changes reach the graphical session.
func WithKeyboard(applier keyboard.Applier) Option {
	return func(m *Manager) {
		if applier != nil {
			m.keyboard = applier
		}
	}
}

// WithPublisher sets where change notifications are sent.
func WithPublisher(publisher events.Publisher) Option {
	return func(m *Manager) {
		if publisher != nil {
			m.publisher = publisher
		}
	}
}

func WithDefaults(defaults Defaults) Option {
	return func(m *Manager) {
		m.defaults = defaults
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(m *Manager) {
		if provider != nil {
			m.tracer = telemetry.NewTracerWithProvider(provider, instrumentationName)
		}
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(m *Manager) {
		if provider != nil {
			m.updates = newUpdatesCounter(provider.Meter(instrumentationName))
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) {}

// NewManager builds the configuration from the defaults, replacing any default
// the catalogs do not know, and makes the interface locale match it.
func NewManager(
	ctx context.Context,
	catalogs *catalog.Catalogs,
	l10n localization.Manager,
	opts ...Option,
) (*Manager, error) {
	if catalogs == nil || catalogs.Locales == nil || catalogs.Timezones == nil || catalogs.Keymaps == nil {
		return nil, ErrNoCatalogs
	}
	if l10n == nil {
		return nil, errors.New("locale manager requires a localization manager")
	}

	m := &Manager{
		catalogs:     catalogs,
		localization: l10n,
		keyboard:     keyboard.Noop(),
		publisher:    noopPublisher{},
		defaults: Defaults{
			Locale:   catalog.DefaultLocaleID().String(),
			Timezone: "UTC",
			Keymap:   "us",
		},
		tracer:  telemetry.NewTracer(instrumentationName),
		updates: newUpdatesCounter(otel.Meter(instrumentationName)),
	}
	for _, opt := range opts {
		opt(m)
	}

	initial, err := m.initialConfig(ctx)
	if err != nil {
		return nil, err
	}
	m.config = initial

	if l10n.Locale() != initial.UILocale {
		if err = l10n.SetLocale(ctx, initial.UILocale); err != nil {
			return nil, err
		}
	}
	m.listings = translateListings(catalogs, l10n, initial.UILocale)

	util.Log(ctx).
		WithField("locale", initial.UILocale).
		WithField("timezone", initial.Timezone).
		WithField("keymap", initial.Keymap).
		Info("localization configuration initialised")
	return m, nil
}

func newUpdatesCounter(meter metric.Meter) metric.Int64Counter {
	return telemetry.DimensionlessMeasure(meter, "l10n.config.updates", "Configuration update requests by outcome")
}

func (m *Manager) initialConfig(ctx context.Context) (Config, error) {
	log := util.Log(ctx)

	locale := m.defaults.Locale
	if !m.catalogs.Locales.Exists(locale) {
		fallback := catalog.DefaultLocaleID().String()
		if !m.catalogs.Locales.Exists(fallback) {
			entries := m.catalogs.Locales.Entries()
			if len(entries) == 0 {
				return Config{}, errors.New("the locales catalog is empty")
			}
			fallback = entries[0].ID.String()
		}
		log.WithField("configured", locale).WithField("using", fallback).Warn("default locale is not known")
		locale = fallback
	}

	timezone := m.defaults.Timezone
	if !m.catalogs.Timezones.Exists(timezone) {
		fallback := "UTC"
		if !m.catalogs.Timezones.Exists(fallback) {
			entries := m.catalogs.Timezones.Entries()
			if len(entries) == 0 {
				return Config{}, errors.New("the timezones catalog is empty")
			}
			fallback = entries[0].Code
		}
		log.WithField("configured", timezone).WithField("using", fallback).Warn("default timezone is not known")
		timezone = fallback
	}

	keymap, err := m.knownKeymap(m.defaults.Keymap)
	if err != nil {
		fallback := catalog.KeymapID{Layout: "us"}
		if !m.catalogs.Keymaps.Exists(fallback.String()) {
			entries := m.catalogs.Keymaps.Entries()
			if len(entries) == 0 {
				return Config{}, errors.New("the keymaps catalog is empty")
			}
			fallback = entries[0].ID
		}
		log.WithError(err).WithField("using", fallback.String()).Warn("default keymap is not known")
		keymap = fallback
	}

	return Config{
		Locales:  []string{locale},
		Keymap:   keymap.String(),
		Timezone: timezone,
		UILocale: locale,
		UIKeymap: keymap.String(),
	}, nil
}

// Snapshot returns an independent copy of the current configuration.
func (m *Manager) Snapshot(_ context.Context) Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Clone()
}

// Locales lists the locale catalog with labels in the interface language.
func (m *Manager) Locales(_ context.Context) []catalog.LocaleEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.listings.locales)
}

// Timezones lists the timezone catalog with labels in the interface language.
func (m *Manager) Timezones(_ context.Context) []catalog.TimezoneEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.listings.timezones)
	for i := range out {
		out[i].Parts = slices.Clone(out[i].Parts)
	}
	return out
}

// Keymaps lists the keymap catalog with labels in the interface language.
func (m *Manager) Keymaps(_ context.Context) []catalog.KeymapEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.listings.keymaps)
}

// Apply validates every field present in req and commits them together.
// A rejected field or a failure to apply ui_keymap leaves the configuration untouched.
func (m *Manager) Apply(ctx context.Context, req UpdateRequest) (changes ChangeSet, err error) {
	ctx, span := m.tracer.Start(ctx, "Apply")
	defer func() { m.tracer.End(ctx, span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	log := util.Log(ctx)

	staged, changes, err := m.stage(req)
	if err != nil {
		m.record(ctx, span, outcomeRejected)
		log.WithError(err).Debug("configuration update rejected")
		return ChangeSet{}, err
	}
	span.SetAttributes(attribute.StringSlice("l10n.fields", changes.Fields()))

	if req.UIKeymap != nil {
		if err = m.keyboard.ApplyKeymap(ctx, staged.UIKeymap); err != nil {
			err = commitFailed("ui_keymap", staged.UIKeymap, err)
			m.record(ctx, span, outcomeFailed)
			return ChangeSet{}, err
		}
	}

	m.config = staged

	if req.UILocale != nil {
		m.switchInterfaceLocale(ctx, staged.UILocale)
	}

	m.publisher.Publish(ctx, ConfigChanged{ChangeSet: changes})
	m.record(ctx, span, outcomeApplied)

	log.WithField("fields", changes.Fields()).Info("configuration updated")
	return changes, nil
}

// stage validates req in the order locales, timezone, keymap, ui_locale,
// ui_keymap and returns the resulting configuration without committing it.
func (m *Manager) stage(req UpdateRequest) (Config, ChangeSet, error) {
	staged := m.config.Clone()
	var changes ChangeSet

	if req.Locales != nil {
		for _, code := range req.Locales {
			if !m.catalogs.Locales.Exists(code) {
				return Config{}, ChangeSet{}, unknownLocale("locales", code)
			}
		}
		staged.Locales = slices.Clone(req.Locales)
		changes.Locales = slices.Clone(req.Locales)
	}

	if req.Timezone != nil {
		if !m.catalogs.Timezones.Exists(*req.Timezone) {
			return Config{}, ChangeSet{}, unknownTimezone(*req.Timezone)
		}
		staged.Timezone = *req.Timezone
		changes.Timezone = ptr(*req.Timezone)
	}

	if req.Keymap != nil {
		id, err := m.knownKeymap(*req.Keymap)
		if err != nil {
			return Config{}, ChangeSet{}, invalidKeymap("keymap", *req.Keymap, err)
		}
		staged.Keymap = id.String()
		changes.Keymap = ptr(*req.Keymap)
	}

	if req.UILocale != nil {
		if _, err := catalog.ParseLocaleID(*req.UILocale); err != nil || !m.catalogs.Locales.Exists(*req.UILocale) {
			return Config{}, ChangeSet{}, unknownLocale("ui_locale", *req.UILocale)
		}
		// The interface switch after commit must not fail on a tag it cannot parse.
		if _, err := localization.ToTag(*req.UILocale); err != nil {
			return Config{}, ChangeSet{}, unknownLocale("ui_locale", *req.UILocale)
		}
		staged.UILocale = *req.UILocale
		changes.UILocale = ptr(*req.UILocale)
	}

	if req.UIKeymap != nil {
		id, err := m.knownKeymap(*req.UIKeymap)
		if err != nil {
			return Config{}, ChangeSet{}, invalidKeymap("ui_keymap", *req.UIKeymap, err)
		}
		staged.UIKeymap = id.String()
		changes.UIKeymap = ptr(*req.UIKeymap)
	}

	return staged, changes, nil
}

// knownKeymap parses code and requires it to be listed in the keymap catalog.
func (m *Manager) knownKeymap(code string) (catalog.KeymapID, error) {
	id, err := catalog.ParseKeymapID(code)
	if err != nil {
		return catalog.KeymapID{}, err
	}
	if !m.catalogs.Keymaps.Exists(id.String()) {
		return catalog.KeymapID{}, fmt.Errorf("%w: %q is not in the catalog", catalog.ErrInvalidKeymap, code)
	}
	return id, nil
}

// switchInterfaceLocale is the only place the process-wide interface locale
// changes after start up. Callers hold the exclusive lock.
func (m *Manager) switchInterfaceLocale(ctx context.Context, locale string) {
	// stage already accepted locale through localization.ToTag, the only
	// check SetLocale makes, so this error only comes from other Manager
	// implementations.
	if err := m.localization.SetLocale(ctx, locale); err != nil {
		util.Log(ctx).WithError(err).WithField("locale", locale).Warn("could not switch the interface locale")
	}
	m.listings = translateListings(m.catalogs, m.localization, locale)
	m.publisher.Publish(ctx, LocaleChanged{Locale: locale})
}

func (m *Manager) record(ctx context.Context, span trace.Span, outcome string) {
	m.updates.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("l10n.outcome", outcome))
}
