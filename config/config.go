package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "l10n/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultLocale   = "en_US.UTF-8"
	DefaultTimezone = "UTC"
	DefaultKeymap   = "us"
)

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogFormat     string `envDefault:"info"                      env:"LOG_FORMAT"      yaml:"log_format"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	ServiceName        string `envDefault:"l10n" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:""     env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:""     env:"SERVICE_VERSION"     yaml:"service_version"`

	HTTPServerPort string `envDefault:":8080" env:"HTTP_PORT" yaml:"http_server_port"`

	ProfilerEnable   bool   `envDefault:"false" env:"PROFILER_ENABLE" yaml:"profiler_enable"`
	ProfilerPortAddr string `envDefault:":6060" env:"PROFILER_PORT"   yaml:"profiler_port"`

	OpenTelemetryDisable    bool    `envDefault:"false" env:"OPENTELEMETRY_DISABLE"        yaml:"opentelemetry_disable"`
	OpenTelemetryTraceRatio float64 `envDefault:"0.1"   env:"OPENTELEMETRY_TRACE_ID_RATIO" yaml:"opentelemetry_trace_id_ratio"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	EventsQueueName        string `envDefault:"l10n.events"       env:"L10N_EVENTS_QUEUE_NAME"        yaml:"events_queue_name"`
	EventsQueueURL         string `envDefault:"mem://l10n.events" env:"L10N_EVENTS_QUEUE_URL"         yaml:"events_queue_url"`
	EventsSubscriberBuffer int    `envDefault:"16"                env:"L10N_EVENTS_SUBSCRIBER_BUFFER" yaml:"events_subscriber_buffer"`

	CatalogDir      string `envDefault:"" env:"L10N_CATALOG_DIR"      yaml:"catalog_dir"`
	TranslationsDir string `envDefault:"" env:"L10N_TRANSLATIONS_DIR" yaml:"translations_dir"`

	DefaultLocaleValue   string `envDefault:"" env:"L10N_DEFAULT_LOCALE"   yaml:"default_locale"`
	DefaultTimezoneValue string `envDefault:"" env:"L10N_DEFAULT_TIMEZONE" yaml:"default_timezone"`
	DefaultKeymapValue   string `envDefault:"" env:"L10N_DEFAULT_KEYMAP"   yaml:"default_keymap"`

	UIKeymapApply bool   `envDefault:"true"               env:"L10N_UI_KEYMAP_APPLY" yaml:"ui_keymap_apply"`
	LocalectlPath string `envDefault:"/usr/bin/localectl" env:"L10N_LOCALECTL_PATH"  yaml:"localectl_path"`
	SetxkbmapPath string `envDefault:"/usr/bin/setxkbmap" env:"L10N_SETXKBMAP_PATH"  yaml:"setxkbmap_path"`
	X11Display    string `envDefault:":0"                 env:"L10N_X11_DISPLAY"     yaml:"x11_display"`
	ExportLang    bool   `envDefault:"true"               env:"L10N_EXPORT_LANG"     yaml:"export_lang"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}

func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}

func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingFormat() string {
	return c.LogFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationPorts interface {
	HTTPPort() string
}

var _ ConfigurationPorts = new(ConfigurationDefault)

func (c *ConfigurationDefault) HTTPPort() string {
	if i, err := strconv.Atoi(c.HTTPServerPort); err == nil && i > 0 {
		return fmt.Sprintf(":%s", strings.TrimSpace(c.HTTPServerPort))
	}

	if strings.HasPrefix(c.HTTPServerPort, ":") || strings.Contains(c.HTTPServerPort, ":") {
		return c.HTTPServerPort
	}

	return ":8080"
}

type ConfigurationProfiler interface {
	ProfilerEnabled() bool
	ProfilerPort() string
}

var _ ConfigurationProfiler = new(ConfigurationDefault)

func (c *ConfigurationDefault) ProfilerEnabled() bool {
	return c.ProfilerEnable
}

func (c *ConfigurationDefault) ProfilerPort() string {
	if c.ProfilerPortAddr != "" {
		return c.ProfilerPortAddr
	}
	return ":6060"
}

type ConfigurationTelemetry interface {
	DisableOpenTelemetry() bool
	SamplingRatio() float64
}

var _ ConfigurationTelemetry = new(ConfigurationDefault)

func (c *ConfigurationDefault) DisableOpenTelemetry() bool {
	return c.OpenTelemetryDisable
}

func (c *ConfigurationDefault) SamplingRatio() float64 {
	return c.OpenTelemetryTraceRatio
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

type ConfigurationEvents interface {
	GetEventsQueueName() string
	GetEventsQueueURL() string
	GetEventsSubscriberBuffer() int
}

var _ ConfigurationEvents = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetEventsQueueName() string {
	if strings.TrimSpace(c.EventsQueueName) == "" {
		return "l10n.events"
	}

	return c.EventsQueueName
}

// GetEventsQueueURL is empty when forwarding events to a queue is disabled.
func (c *ConfigurationDefault) GetEventsQueueURL() string {
	return strings.TrimSpace(c.EventsQueueURL)
}

func (c *ConfigurationDefault) GetEventsSubscriberBuffer() int {
	if c.EventsSubscriberBuffer <= 0 {
		return 16
	}
	return c.EventsSubscriberBuffer
}

type ConfigurationL10n interface {
	GetCatalogDir() string
	GetTranslationsDir() string
	DefaultLocale() string
	DefaultTimezone() string
	DefaultKeymap() string
	ExportsLang() bool
}

var _ ConfigurationL10n = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCatalogDir() string {
	return c.CatalogDir
}

func (c *ConfigurationDefault) GetTranslationsDir() string {
	return c.TranslationsDir
}

// DefaultLocale prefers L10N_DEFAULT_LOCALE, then LANG, then en_US.UTF-8.
func (c *ConfigurationDefault) DefaultLocale() string {
	return firstUsable(DefaultLocale, c.DefaultLocaleValue, os.Getenv("LANG"))
}

// DefaultTimezone prefers L10N_DEFAULT_TIMEZONE, then TZ, then UTC.
func (c *ConfigurationDefault) DefaultTimezone() string {
	return firstUsable(DefaultTimezone, c.DefaultTimezoneValue, strings.TrimPrefix(os.Getenv("TZ"), ":"))
}

func (c *ConfigurationDefault) DefaultKeymap() string {
	return firstUsable(DefaultKeymap, c.DefaultKeymapValue)
}

func (c *ConfigurationDefault) ExportsLang() bool {
	return c.ExportLang
}

type ConfigurationKeyboard interface {
	ApplyUIKeymap() bool
	GetLocalectlPath() string
	GetSetxkbmapPath() string
	GetX11Display() string
}

var _ ConfigurationKeyboard = new(ConfigurationDefault)

func (c *ConfigurationDefault) ApplyUIKeymap() bool {
	return c.UIKeymapApply
}

func (c *ConfigurationDefault) GetLocalectlPath() string {
	return c.LocalectlPath
}

func (c *ConfigurationDefault) GetSetxkbmapPath() string {
	return c.SetxkbmapPath
}

func (c *ConfigurationDefault) GetX11Display() string {
	return c.X11Display
}

func firstUsable(fallback string, values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return fallback
}
