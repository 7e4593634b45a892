package openapi

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed specs/*.json
var embeddedSpecs embed.FS

// Default returns a registry holding the documents shipped with the service.
func Default() (*Registry, error) {
	reg := NewRegistry()
	if err := RegisterFromFS(reg, embeddedSpecs, "specs"); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterFromFS registers all .json specs found in dir.
func RegisterFromFS(reg *Registry, f fs.FS, dir string) error {
	entries, err := fs.ReadDir(f, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		data, readErr := fs.ReadFile(f, path.Join(dir, name))
		if readErr != nil {
			return readErr
		}
		doc := Document{Name: strings.TrimSuffix(name, path.Ext(name)), Filename: name, Content: data}
		if err = reg.Add(doc); err != nil {
			return err
		}
	}

	return nil
}
