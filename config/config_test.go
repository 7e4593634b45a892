package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n/config"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("L10N_EVENTS_QUEUE_URL", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	require.NoError(t, err)

	assert.Equal(t, "l10n", cfg.Name())
	assert.Equal(t, ":8080", cfg.HTTPPort())
	assert.Equal(t, "l10n.events", cfg.GetEventsQueueName())
	assert.Equal(t, 16, cfg.GetEventsSubscriberBuffer())
	assert.Equal(t, time.Second, cfg.GetExpiryDuration())
	assert.True(t, cfg.ApplyUIKeymap())
	assert.Equal(t, "/usr/bin/localectl", cfg.GetLocalectlPath())
	assert.Equal(t, ":0", cfg.GetX11Display())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("L10N_EVENTS_QUEUE_URL", " nats://l10n.events ")
	t.Setenv("L10N_UI_KEYMAP_APPLY", "false")
	t.Setenv("WORKER_POOL_EXPIRY_DURATION", "5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPPort())
	assert.Equal(t, "nats://l10n.events", cfg.GetEventsQueueURL())
	assert.False(t, cfg.ApplyUIKeymap())
	assert.Equal(t, 5*time.Minute, cfg.GetExpiryDuration())
	assert.True(t, cfg.LoggingLevelIsDebug())
}

func TestHTTPPort(t *testing.T) {
	testCases := []struct {
		name     string
		port     string
		expected string
	}{
		{name: "bare number", port: "8081", expected: ":8081"},
		{name: "colon prefixed", port: ":8082", expected: ":8082"},
		{name: "host and port", port: "127.0.0.1:8083", expected: "127.0.0.1:8083"},
		{name: "garbage", port: "http", expected: ":8080"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.ConfigurationDefault{HTTPServerPort: tc.port}
			assert.Equal(t, tc.expected, cfg.HTTPPort())
		})
	}
}

func TestL10nDefaults(t *testing.T) {
	testCases := []struct {
		name             string
		cfg              config.ConfigurationDefault
		lang             string
		tz               string
		expectedLocale   string
		expectedTimezone string
		expectedKeymap   string
	}{
		{
			name:             "explicit values win",
			cfg:              config.ConfigurationDefault{DefaultLocaleValue: "de_DE.UTF-8", DefaultTimezoneValue: "Europe/Berlin", DefaultKeymapValue: "de"},
			lang:             "es_ES.UTF-8",
			tz:               "Atlantic/Canary",
			expectedLocale:   "de_DE.UTF-8",
			expectedTimezone: "Europe/Berlin",
			expectedKeymap:   "de",
		},
		{
			name:             "process environment",
			lang:             "es_ES.UTF-8",
			tz:               ":Atlantic/Canary",
			expectedLocale:   "es_ES.UTF-8",
			expectedTimezone: "Atlantic/Canary",
			expectedKeymap:   config.DefaultKeymap,
		},
		{
			name:             "posix locale is ignored",
			lang:             "C",
			expectedLocale:   config.DefaultLocale,
			expectedTimezone: config.DefaultTimezone,
			expectedKeymap:   config.DefaultKeymap,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LANG", tc.lang)
			t.Setenv("TZ", tc.tz)

			assert.Equal(t, tc.expectedLocale, tc.cfg.DefaultLocale())
			assert.Equal(t, tc.expectedTimezone, tc.cfg.DefaultTimezone())
			assert.Equal(t, tc.expectedKeymap, tc.cfg.DefaultKeymap())
		})
	}
}

func TestContext(t *testing.T) {
	cfg := &config.ConfigurationDefault{ServiceName: "installer"}
	ctx := config.ToContext(context.Background(), cfg)

	assert.Same(t, cfg, config.FromContext[*config.ConfigurationDefault](ctx))
	assert.Nil(t, config.FromContext[*config.ConfigurationDefault](context.Background()))

	svc := config.FromContext[config.ConfigurationService](ctx)
	require.NotNil(t, svc)
	assert.Equal(t, "installer", svc.Name())
}
