package l10n

import (
	"context"

	"github.com/pitabwire/l10n/catalog"
	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/events"
	"github.com/pitabwire/l10n/keyboard"
	"github.com/pitabwire/l10n/telemetry"
)

// WithConfig replaces the configuration read from the environment.
func WithConfig(cfg *config.ConfigurationDefault) Option {
	return func(_ context.Context, s *Service) {
		s.cfg = cfg
	}
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

// WithVersion specifies the version the service will utilize.
func WithVersion(version string) Option {
	return func(_ context.Context, s *Service) {
		s.version = version
	}
}

// WithEnvironment specifies the environment the service will utilize.
func WithEnvironment(environment string) Option {
	return func(_ context.Context, s *Service) {
		s.environment = environment
	}
}

// WithCatalogs uses catalogs instead of loading them from L10N_CATALOG_DIR.
func WithCatalogs(catalogs *catalog.Catalogs) Option {
	return func(_ context.Context, s *Service) {
		s.catalogs = catalogs
	}
}

// WithKeyboardApplier decides how ui_keymap changes reach the graphical session.
func WithKeyboardApplier(applier keyboard.Applier) Option {
	return func(_ context.Context, s *Service) {
		s.keyboard = applier
	}
}

// WithEventConsumers subscribes consumers to the events queue. Ignored when
// no queue url is configured.
func WithEventConsumers(consumers ...events.Consumer) Option {
	return func(_ context.Context, s *Service) {
		s.consumers = append(s.consumers, consumers...)
	}
}

// WithTelemetryOptions passes options through to the telemetry manager.
func WithTelemetryOptions(opts ...telemetry.Option) Option {
	return func(_ context.Context, s *Service) {
		s.telemetryOptions = append(s.telemetryOptions, opts...)
	}
}

// WithHealthCheckPath moves the health endpoint away from /healthz.
func WithHealthCheckPath(path string) Option {
	return func(_ context.Context, s *Service) {
		if path != "" {
			s.healthCheckPath = path
		}
	}
}

// WithNoopDriver replaces the HTTP server with one that never listens, for tests.
func WithNoopDriver() Option {
	return func(_ context.Context, s *Service) {
		s.driver = &noopDriver{}
	}
}
