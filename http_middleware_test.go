package l10n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/assert"

	"github.com/pitabwire/l10n/config"
)

func TestWithRequestContextRecoversPanics(t *testing.T) {
	testCases := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "panic before writing",
			handler: func(http.ResponseWriter, *http.Request) {
				panic("catalog lookup failed")
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "panic after headers were sent",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				panic("stream broke")
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "panic after body was written",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("partial"))
				panic("stream broke")
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "partial",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Service{logger: util.Log(t.Context()), cfg: &config.ConfigurationDefault{}}

			rec := httptest.NewRecorder()
			assert.NotPanics(t, func() {
				s.withRequestContext(tc.handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/l10n/config", nil))
			})

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedBody, rec.Body.String())
		})
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	rec.WriteHeader(http.StatusBadRequest)
	rec.WriteHeader(http.StatusInternalServerError)

	assert.True(t, rec.wroteHeader)
	assert.Equal(t, http.StatusBadRequest, rec.statusCode)
}
