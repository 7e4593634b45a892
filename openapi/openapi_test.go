package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n/openapi"
)

func TestRegisterFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"specs/users.json": {Data: []byte("{}")},
		"specs/ignore.txt": {Data: []byte("noop")},
		"specs/empty.json": {Data: []byte("")},
	}

	reg := openapi.NewRegistry()
	require.NoError(t, openapi.RegisterFromFS(reg, fsys, "specs"))

	doc, ok := reg.Lookup("users")
	require.True(t, ok)
	assert.Equal(t, "users.json", doc.Filename)

	_, ok = reg.Lookup("empty")
	assert.False(t, ok, "documents without content are skipped")
	assert.Len(t, reg.List(), 1)
}

func TestDefaultDescribesL10nRoutes(t *testing.T) {
	reg, err := openapi.Default()
	require.NoError(t, err)

	doc, ok := reg.Lookup("l10n")
	require.True(t, ok)
	assert.Equal(t, "Localization configuration", doc.Title)
	assert.NotEmpty(t, doc.Version)

	var parsed struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(doc.Content, &parsed))

	assert.NotEmpty(t, parsed.OpenAPI)
	for _, p := range []string{"/l10n/locales", "/l10n/timezones", "/l10n/keymaps", "/l10n/config"} {
		assert.Contains(t, parsed.Paths, p)
	}
	assert.Contains(t, parsed.Paths["/l10n/config"], "put")
	assert.Contains(t, parsed.Paths["/l10n/config"], "patch")
}

func TestServeIndex(t *testing.T) {
	reg := openapi.NewRegistry()
	require.NoError(t, reg.Add(openapi.Document{Name: "orders", Filename: "orders.json", Content: []byte("{}")}))
	require.NoError(t, reg.Add(openapi.Document{
		Name:     "l10n",
		Filename: "l10n.json",
		Content:  []byte(`{"info":{"title":"Localization configuration","version":"1.0.0"}}`),
	}))

	rec := httptest.NewRecorder()
	openapi.ServeIndex(reg)(rec, httptest.NewRequest(http.MethodGet, "/openapi/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Specs []map[string]string `json:"specs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Specs, 2)
	assert.Equal(t, "l10n", payload.Specs[0]["name"])
	assert.Equal(t, "Localization configuration", payload.Specs[0]["title"])
	assert.Equal(t, "1.0.0", payload.Specs[0]["version"])
	assert.Equal(t, "orders", payload.Specs[1]["name"])
}

func TestServeSpec(t *testing.T) {
	reg := openapi.NewRegistry()
	require.NoError(t, reg.Add(openapi.Document{Name: "l10n", Filename: "l10n.json", Content: []byte(`{"ok":true}`)}))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /openapi/{name}", openapi.ServeSpec(reg))

	testCases := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "by name", path: "/openapi/l10n", status: http.StatusOK, body: `{"ok":true}`},
		{name: "by filename", path: "/openapi/l10n.json", status: http.StatusOK, body: `{"ok":true}`},
		{name: "case insensitive", path: "/openapi/L10N.JSON", status: http.StatusOK, body: `{"ok":true}`},
		{name: "unknown", path: "/openapi/users", status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRegistryRejectsMalformedDocuments(t *testing.T) {
	reg := openapi.NewRegistry()

	err := reg.Add(openapi.Document{Name: "broken", Filename: "broken.json", Content: []byte("{not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, ok := reg.Lookup("broken")
	assert.False(t, ok)

	fsys := fstest.MapFS{"specs/broken.json": {Data: []byte("[")}}
	require.Error(t, openapi.RegisterFromFS(openapi.NewRegistry(), fsys, "specs"))
}

func TestLookup(t *testing.T) {
	reg := openapi.NewRegistry()
	require.NoError(t, reg.Add(openapi.Document{Name: "l10n", Filename: "l10n.json", Content: []byte("{}")}))

	for _, name := range []string{"l10n", "L10n", "l10n.json", " l10n "} {
		t.Run(name, func(t *testing.T) {
			doc, ok := reg.Lookup(name)
			require.True(t, ok)
			assert.Equal(t, "l10n.json", doc.Filename)
		})
	}

	_, ok := reg.Lookup("l10n.yaml")
	assert.False(t, ok)
}
