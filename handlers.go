package l10n

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/l10n/internal"
	"github.com/pitabwire/l10n/locale"
	"github.com/pitabwire/l10n/openapi"
)

const maxRequestBodyBytes = 1 << 20

func (s *Service) registerRoutes() *RouteRegistry {
	r := NewRouteRegistry()

	r.HandleRoute(http.MethodGet, "/l10n/locales", "locales", s.handleLocales)
	r.HandleRoute(http.MethodGet, "/l10n/timezones", "timezones", s.handleTimezones)
	r.HandleRoute(http.MethodGet, "/l10n/keymaps", "keymaps", s.handleKeymaps)
	r.HandleRoute(http.MethodGet, "/l10n/config", "get_config", s.handleGetConfig)
	r.HandleRoute(http.MethodPut, "/l10n/config", "set_config", s.handleSetConfig)
	r.HandleRoute(http.MethodPatch, "/l10n/config", "set_config", s.handleSetConfig)
	r.HandleRoute(http.MethodGet, "/l10n/events", "events", s.handleEvents)

	r.HandleRoute(http.MethodGet, "/openapi/{$}", "openapi_index", openapi.ServeIndex(s.openapi))
	r.HandleRoute(http.MethodGet, "/openapi/{name}", "openapi_spec", openapi.ServeSpec(s.openapi))

	r.HandleRoute(http.MethodGet, s.healthCheckPath, "health", s.HandleHealth)

	s.registerDebugEndpoints(r)
	return r
}

func (s *Service) handleLocales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.locale.Locales(r.Context()))
}

func (s *Service) handleTimezones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.locale.Timezones(r.Context()))
}

func (s *Service) handleKeymaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.locale.Keymaps(r.Context()))
}

func (s *Service) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.locale.Snapshot(r.Context()))
}

// handleSetConfig applies a partial update. PUT and PATCH behave the same.
func (s *Service) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req locale.UpdateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	if _, err := s.locale.Apply(ctx, req); err != nil {
		status := http.StatusInternalServerError
		if locale.IsValidation(err) {
			status = http.StatusBadRequest
		}
		writeError(w, r, status, err)
		return
	}

	writeJSON(w, r, http.StatusOK, nil)
}

// handleEvents streams bus events as server-sent events until the client
// goes away or the service stops.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := util.Log(ctx)

	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	sub := s.bus.Subscribe(s.cfg.GetEventsSubscriberBuffer())
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.WithError(err).Warn("event stream is not supported by the connection")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopping:
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}

			data, err := internal.Marshal(event)
			if err != nil {
				log.WithError(err).WithField("event", event.Name()).Error("could not encode event")
				continue
			}
			if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name(), data); err != nil {
				return
			}
			if err = rc.Flush(); err != nil {
				return
			}
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
	}

	log := util.Log(r.Context()).
		WithError(err).
		WithField("method", r.Method).
		WithField("path", r.URL.Path).
		WithField("status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Info("request rejected")
	}

	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	data, err := internal.Marshal(payload)
	if err != nil {
		util.Log(r.Context()).WithError(err).Error("could not encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
