package l10n

import (
	"context"
	"net/http"

	"github.com/pitabwire/l10n/queue"
)

const defaultDebugBasePath = "/debug/l10n"

// WithDebugEndpoints enables read only introspection endpoints.
func WithDebugEndpoints() Option {
	return func(_ context.Context, s *Service) {
		s.debugEnabled = true
		if s.debugBasePath == "" {
			s.debugBasePath = defaultDebugBasePath
		}
	}
}

// WithDebugEndpointsAt enables introspection endpoints at a custom base path.
func WithDebugEndpointsAt(basePath string) Option {
	return func(_ context.Context, s *Service) {
		s.debugEnabled = true
		s.debugBasePath = basePath
	}
}

func (s *Service) registerDebugEndpoints(r *RouteRegistry) {
	if !s.debugEnabled {
		return
	}
	base := s.debugBasePath
	if base == "" {
		base = defaultDebugBasePath
	}

	r.HandleRoute(http.MethodGet, base+"/service", "debug_service", s.debugService)
	r.HandleRoute(http.MethodGet, base+"/routes", "debug_routes", s.debugRoutes)
	r.HandleRoute(http.MethodGet, base+"/queues", "debug_queues", s.debugQueues)
	r.HandleRoute(http.MethodGet, base+"/catalogs", "debug_catalogs", s.debugCatalogs)
	r.HandleRoute(http.MethodGet, base+"/health", "debug_health", s.debugHealth)
}

func (s *Service) debugService(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"service_name":      s.Name(),
		"environment":       s.Environment(),
		"version":           s.Version(),
		"apply_ui_keymap":   s.cfg.ApplyUIKeymap(),
		"events_queue_name": s.cfg.GetEventsQueueName(),
		"profiler_enabled":  s.cfg.ProfilerEnabled(),
	})
}

func (s *Service) debugRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"routes": s.Routes(),
	})
}

func (s *Service) debugQueues(w http.ResponseWriter, r *http.Request) {
	pubs := []queue.PublisherInfo{}
	subs := []queue.SubscriberInfo{}
	if qi, ok := s.queueManager.(queue.Inspector); ok {
		pubs = append(pubs, qi.ListPublishers()...)
		subs = append(subs, qi.ListSubscribers()...)
	}

	var sent int64
	if s.forwarder != nil {
		sent = s.forwarder.Sent()
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"publishers":      pubs,
		"subscribers":     subs,
		"forwarded_count": sent,
	})
}

func (s *Service) debugCatalogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]int{
		"locales":   s.catalogs.Locales.Len(),
		"timezones": s.catalogs.Timezones.Len(),
		"keymaps":   s.catalogs.Keymaps.Len(),
	})
}

func (s *Service) debugHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"path":   s.healthCheckPath,
		"checks": len(s.HealthCheckers()),
	})
}
