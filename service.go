// Package l10n assembles the localization configuration service: catalogs,
// the configuration manager, the change notifier and the HTTP surface.
package l10n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pitabwire/l10n/catalog"
	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/events"
	"github.com/pitabwire/l10n/keyboard"
	"github.com/pitabwire/l10n/locale"
	"github.com/pitabwire/l10n/localization"
	"github.com/pitabwire/l10n/openapi"
	"github.com/pitabwire/l10n/profiler"
	"github.com/pitabwire/l10n/queue"
	"github.com/pitabwire/l10n/telemetry"
	"github.com/pitabwire/l10n/version"
	"github.com/pitabwire/l10n/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "l10n/" + string(c)
}

const (
	ctxKeyService = contextKey("serviceKey")

	defaultHTTPReadTimeoutSeconds  = 15
	defaultHTTPWriteTimeoutSeconds = 15
	defaultHTTPIdleTimeoutSeconds  = 60
	defaultShutdownTimeoutSeconds  = 10
)

// Service holds together every component of the running l10n service.
// One instance lives for the lifetime of the process.
type Service struct {
	name        string
	version     string
	environment string

	cfg        *config.ConfigurationDefault
	logger     *util.LogEntry
	logOptions []util.Option

	telemetryManager telemetry.Manager
	telemetryOptions []telemetry.Option

	workPool     workerpool.Manager
	queueManager queue.Manager
	bus          *events.Bus
	forwarder    *events.Forwarder
	consumers    []events.Consumer

	catalogs     *catalog.Catalogs
	localization localization.Manager
	keyboard     keyboard.Applier
	locale       *locale.Manager
	openapi      *openapi.Registry
	profiler     *profiler.Server

	routes          *RouteRegistry
	handler         http.Handler
	driver          driver
	healthCheckers  []Checker
	healthCheckPath string
	debugEnabled    bool
	debugBasePath   string

	cancelFunc   context.CancelFunc
	stopping     chan struct{}
	errorChannel chan error
	startup      func(ctx context.Context, s *Service)
	cleanup      func(ctx context.Context)
	mu           sync.Mutex
	stopOnce     sync.Once
}

type Option func(ctx context.Context, s *Service)

// NewService builds every component of the service. The returned context is
// canceled on SIGHUP, SIGINT, SIGTERM or SIGQUIT and carries the service,
// its configuration and its logger.
func NewService(ctx context.Context, opts ...Option) (context.Context, *Service, error) {
	ctx, signalCancelFunc := signal.NotifyContext(ctx,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	s := &Service{
		cancelFunc:      signalCancelFunc,
		stopping:        make(chan struct{}),
		errorChannel:    make(chan error, 1),
		logger:          util.Log(ctx),
		healthCheckPath: "/healthz",
		profiler:        profiler.NewServer(),
	}

	for _, opt := range opts {
		opt(ctx, s)
	}

	if s.cfg == nil {
		cfg, err := config.FromEnv[config.ConfigurationDefault]()
		if err != nil {
			signalCancelFunc()
			return ctx, nil, fmt.Errorf("could not read configuration: %w", err)
		}
		s.cfg = &cfg
	}
	s.applyConfigIdentity()

	ctx, err := s.init(ctx)
	if err != nil {
		s.Stop(ctx)
		return ctx, nil, err
	}

	ctx = SvcToContext(ctx, s)
	ctx = config.ToContext(ctx, s.cfg)
	ctx = util.ContextWithLogger(ctx, s.logger)
	return ctx, s, nil
}

func (s *Service) applyConfigIdentity() {
	if s.name == "" {
		s.name = s.cfg.Name()
	}
	if s.environment == "" {
		s.environment = s.cfg.Environment()
	}
	if s.version == "" {
		s.version = s.cfg.Version()
	}
	if s.version == "" {
		s.version = version.Version
	}
}

func (s *Service) init(ctx context.Context) (context.Context, error) {
	telemetryOpts := append([]telemetry.Option{
		telemetry.WithServiceName(s.name),
		telemetry.WithServiceVersion(s.version),
		telemetry.WithServiceEnvironment(s.environment),
	}, s.telemetryOptions...)

	s.telemetryManager = telemetry.NewManager(ctx, s.cfg, telemetryOpts...)
	if err := s.telemetryManager.Init(ctx); err != nil {
		return ctx, fmt.Errorf("could not initialise telemetry: %w", err)
	}

	s.logger = s.newLogger(ctx)
	ctx = util.ContextWithLogger(ctx, s.logger)

	var err error
	s.workPool, err = workerpool.NewManager(ctx, s.cfg,
		workerpool.WithPoolPanicHandler(func(rec any) {
			s.logger.WithField("panic", rec).Error("panic recovered in worker pool job")
		}))
	if err != nil {
		return ctx, fmt.Errorf("could not create worker pool: %w", err)
	}
	s.queueManager = queue.NewQueueManager(ctx, s.workPool)

	if err = s.initEvents(ctx); err != nil {
		return ctx, err
	}

	if s.catalogs == nil {
		s.catalogs, err = catalog.LoadDir(s.cfg.GetCatalogDir())
		if err != nil {
			return ctx, fmt.Errorf("could not load catalogs: %w", err)
		}
	}

	s.localization, err = localization.NewManager(s.cfg.GetTranslationsDir(),
		localization.WithEnvExport(s.cfg.ExportsLang()),
		localization.WithInitialLocale(s.cfg.DefaultLocale()),
	)
	if err != nil {
		return ctx, fmt.Errorf("could not load translations: %w", err)
	}

	if s.keyboard == nil {
		s.keyboard = s.defaultKeyboard()
	}

	s.locale, err = locale.NewManager(ctx, s.catalogs, s.localization,
		locale.WithKeyboard(s.keyboard),
		locale.WithPublisher(s.bus),
		locale.WithDefaults(locale.Defaults{
			Locale:   s.cfg.DefaultLocale(),
			Timezone: s.cfg.DefaultTimezone(),
			Keymap:   s.cfg.DefaultKeymap(),
		}),
	)
	if err != nil {
		return ctx, fmt.Errorf("could not initialise the configuration: %w", err)
	}

	s.openapi, err = openapi.Default()
	if err != nil {
		return ctx, fmt.Errorf("could not load api documents: %w", err)
	}

	s.routes = s.registerRoutes()
	s.handler = otelhttp.NewHandler(s.withRequestContext(s.routes), s.name)

	if s.driver == nil {
		s.driver = &defaultDriver{
			httpServer: &http.Server{
				BaseContext: func(_ net.Listener) context.Context {
					return ctx
				},
				ReadTimeout:  defaultHTTPReadTimeoutSeconds * time.Second,
				WriteTimeout: defaultHTTPWriteTimeoutSeconds * time.Second,
				IdleTimeout:  defaultHTTPIdleTimeoutSeconds * time.Second,
			},
		}
	}

	return ctx, nil
}

// initEvents sets up the bus and, when a queue url is configured, forwards
// every event to that topic.
func (s *Service) initEvents(ctx context.Context) error {
	queueURL := s.cfg.GetEventsQueueURL()
	if queueURL == "" {
		s.bus = events.NewBus()
		return nil
	}

	reference := s.cfg.GetEventsQueueName()
	if err := s.queueManager.AddPublisher(ctx, reference, queueURL); err != nil {
		return fmt.Errorf("could not open events queue: %w", err)
	}
	s.AddHealthCheck(CheckerFunc(func() error {
		pub, err := s.queueManager.GetPublisher(reference)
		if err != nil {
			return err
		}
		if !pub.Initiated() {
			return fmt.Errorf("events publisher %s is not initiated", reference)
		}
		return nil
	}))

	if len(s.consumers) > 0 {
		registry := events.NewRegistry(s.consumers...)
		if err := s.queueManager.AddSubscriber(ctx, reference, queueURL, registry.Handler()); err != nil {
			return fmt.Errorf("could not subscribe to events queue: %w", err)
		}
	}

	s.forwarder = events.NewForwarder(s.queueManager, reference, s.workPool)
	s.bus = events.NewBus(events.WithForwarder(s.forwarder))
	return nil
}

func (s *Service) defaultKeyboard() keyboard.Applier {
	if !s.cfg.ApplyUIKeymap() {
		return keyboard.Noop()
	}
	return keyboard.NewCommandApplier(
		keyboard.WithLocalectlPath(s.cfg.GetLocalectlPath()),
		keyboard.WithSetxkbmapPath(s.cfg.GetSetxkbmapPath()),
		keyboard.WithDisplay(s.cfg.GetX11Display()),
	)
}

// SvcToContext pushes a service instance into the supplied context for easier propagation.
func SvcToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// Svc obtains a service instance being propagated through the context.
func Svc(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}
	return service
}

func (s *Service) Name() string {
	return s.name
}

func (s *Service) Version() string {
	return s.version
}

func (s *Service) Environment() string {
	return s.environment
}

func (s *Service) Config() *config.ConfigurationDefault {
	return s.cfg
}

// Locale is the configuration manager behind the /l10n routes.
func (s *Service) Locale() *locale.Manager {
	return s.locale
}

func (s *Service) Localization() localization.Manager {
	return s.localization
}

func (s *Service) Catalogs() *catalog.Catalogs {
	return s.catalogs
}

// Bus carries configuration change notifications.
func (s *Service) Bus() *events.Bus {
	return s.bus
}

// Forwarder is nil when events are not forwarded to a queue.
func (s *Service) Forwarder() *events.Forwarder {
	return s.forwarder
}

func (s *Service) Queue() queue.Manager {
	return s.queueManager
}

func (s *Service) WorkManager() workerpool.Manager {
	return s.workPool
}

func (s *Service) OpenAPI() *openapi.Registry {
	return s.openapi
}

// H is the fully wrapped HTTP handler served by Run.
func (s *Service) H() http.Handler {
	return s.handler
}

func (s *Service) Routes() []RouteInfo {
	return s.routes.Routes()
}

func (s *Service) Log(ctx context.Context) *util.LogEntry {
	return s.logger.WithContext(ctx)
}

func (s *Service) SLog(ctx context.Context) *slog.Logger {
	return s.Log(ctx).SLog()
}

// AddPreStartMethod adds functions run just before the service starts
// receiving requests.
func (s *Service) AddPreStartMethod(f func(ctx context.Context, s *Service)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startup == nil {
		s.startup = f
		return
	}

	old := s.startup
	s.startup = func(ctx context.Context, st *Service) { old(ctx, st); f(ctx, st) }
}

// AddCleanupMethod adds functions run while stopping, newest first.
func (s *Service) AddCleanupMethod(f func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleanup == nil {
		s.cleanup = f
		return
	}

	old := s.cleanup
	s.cleanup = func(ctx context.Context) { f(ctx); old(ctx) }
}

// Run serves HTTP on address, or on the configured port when address is
// empty, until the context is canceled or the server fails.
func (s *Service) Run(ctx context.Context, address string) error {
	if address == "" {
		address = s.cfg.HTTPPort()
	}

	s.mu.Lock()
	startup := s.startup
	s.mu.Unlock()
	if startup != nil {
		startup(ctx, s)
	}

	if err := s.profiler.StartIfEnabled(ctx, s.cfg); err != nil {
		return fmt.Errorf("could not start profiler: %w", err)
	}

	go func() {
		s.Log(ctx).WithField("address", address).Info("service listening")
		s.sendStopError(s.driver.ListenAndServe(address, s.handler))
	}()

	select {
	case <-ctx.Done():
		s.Stop(ctx)
		return ctx.Err()
	case err := <-s.errorChannel:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log(ctx).WithError(err).Error("system exit in error")
			s.Stop(ctx)
			return err
		}
		s.Log(ctx).Debug("system exit")
		return nil
	}
}

// Stop shuts the server down, runs the cleanup methods and releases every
// component. Only the first call has an effect.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeoutSeconds*time.Second)
		defer cancel()

		log := s.Log(ctx)
		log.Info("service stopping")
		close(s.stopping)

		if s.driver != nil {
			if err := s.driver.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("http server did not shut down cleanly")
			}
		}

		if err := s.profiler.Stop(ctx); err != nil {
			log.WithError(err).Warn("profiler did not shut down cleanly")
		}

		s.mu.Lock()
		cleanup := s.cleanup
		s.mu.Unlock()
		if cleanup != nil {
			cleanup(ctx)
		}

		if s.queueManager != nil {
			if err := s.queueManager.Close(ctx); err != nil {
				log.WithError(err).Warn("queues did not close cleanly")
			}
		}

		if s.workPool != nil {
			if err := s.workPool.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("worker pool did not shut down cleanly")
			}
		}

		if s.telemetryManager != nil {
			if err := s.telemetryManager.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("telemetry did not flush cleanly")
			}
		}

		if s.cancelFunc != nil {
			s.cancelFunc()
		}
	})
}

func (s *Service) sendStopError(err error) {
	select {
	case s.errorChannel <- err:
	default:
	}
}
