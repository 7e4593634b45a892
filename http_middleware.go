package l10n

import (
	"net/http"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/localization"
)

// statusRecorder remembers the status written by a handler and whether
// headers have gone out.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach Flush and deadlines.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestContext gives every request the service, its configuration, a
// request scoped logger and the languages the caller asked for. It also logs
// each request once it completes and turns handler panics into a 500.
func (s *Service) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := r.Context()
		log := s.Log(ctx).
			WithField("method", r.Method).
			WithField("path", r.URL.Path)

		ctx = util.ContextWithLogger(ctx, log)
		ctx = SvcToContext(ctx, s)
		ctx = config.ToContext(ctx, s.cfg)
		if lang := localization.ExtractLanguageFromHTTPRequest(r); len(lang) > 0 {
			ctx = localization.ToContext(ctx, lang)
		}

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				log.WithField("panic", rec).
					WithField("headers_sent", recorder.wroteHeader).
					Error("panic recovered in http handler")
				if !recorder.wroteHeader {
					recorder.WriteHeader(http.StatusInternalServerError)
				}
				return
			}

			log.WithField("status", recorder.statusCode).
				WithField("duration", time.Since(start).String()).
				Debug("http request processed")
		}()

		next.ServeHTTP(recorder, r.WithContext(ctx))
	})
}
