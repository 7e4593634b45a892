package l10n

import (
	"context"

	"github.com/pitabwire/util"
)

// WithLogger adds options to the service logger. Level, time format, colour
// and stack traces still come from the configuration.
func WithLogger(opts ...util.Option) Option {
	return func(_ context.Context, s *Service) {
		s.logOptions = append(s.logOptions, opts...)
	}
}

func (s *Service) newLogger(ctx context.Context) *util.LogEntry {
	var opts []util.Option

	logLevel, err := util.ParseLevel(s.cfg.LoggingLevel())
	if err == nil {
		opts = append(opts, util.WithLogLevel(logLevel))
	}
	opts = append(opts,
		util.WithLogTimeFormat(s.cfg.LoggingTimeFormat()),
		util.WithLogNoColor(!s.cfg.LoggingColored()))
	if s.cfg.LoggingShowStackTrace() {
		opts = append(opts, util.WithLogStackTrace())
	}

	if s.telemetryManager != nil && s.telemetryManager.LogHandler() != nil {
		opts = append(opts, util.WithLogHandler(s.telemetryManager.LogHandler()))
	}

	opts = append(opts, s.logOptions...)

	return util.NewLogger(ctx, opts...).WithField("service", s.name)
}
