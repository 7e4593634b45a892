// Package openapi serves the OpenAPI documents describing the HTTP surface.
package openapi

import (
	"cmp"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
)

// Document is one OpenAPI description. Title and Version come from its
// info object.
type Document struct {
	Name     string
	Filename string
	Title    string
	Version  string
	Content  []byte
}

type Registry struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewRegistry() *Registry {
	return &Registry{docs: map[string]Document{}}
}

// Add registers doc under its name. Documents without a name or content are
// skipped; content that is not a JSON object is an error.
func (r *Registry) Add(doc Document) error {
	if doc.Name == "" || len(doc.Content) == 0 {
		return nil
	}

	var head struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(doc.Content, &head); err != nil {
		return fmt.Errorf("openapi document %s: %w", doc.Name, err)
	}
	doc.Title = head.Info.Title
	doc.Version = head.Info.Version

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[strings.ToLower(doc.Name)] = doc
	return nil
}

// Lookup finds a document by name or file name, ignoring case, so "l10n",
// "L10N" and "l10n.json" all resolve to the same document.
func (r *Registry) Lookup(name string) (Document, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ext := path.Ext(key); ext == ".json" {
		key = strings.TrimSuffix(key, ext)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[key]
	return doc, ok
}

// List returns the documents sorted by name.
func (r *Registry) List() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Document) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
