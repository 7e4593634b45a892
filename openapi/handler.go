package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ServeIndex lists the registered documents.
func ServeIndex(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := reg.List()
		index := make([]map[string]string, 0, len(items))
		for _, d := range items {
			index = append(index, map[string]string{
				"name":     d.Name,
				"filename": d.Filename,
				"title":    d.Title,
				"version":  d.Version,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"specs": index})
	}
}

// ServeSpec writes the document named by the {name} path value, or the last
// path segment when the route has no such wildcard.
func ServeSpec(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if name == "" {
			name = r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		}

		doc, ok := reg.Lookup(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// #nosec G705 -- serving trusted embedded OpenAPI documents.
		_, _ = w.Write(doc.Content)
	}
}
