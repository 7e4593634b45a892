// Package catalog holds the immutable reference lists of locales, timezones
// and keymaps that configuration values are validated against.
package catalog

import (
	"fmt"
)

// Entry is anything that can be stored in a Catalog.
type Entry interface {
	// Key is the canonical identifier used for membership tests.
	Key() string
}

// Catalog is an ordered, read-only list of entries with a membership index.
// Once built it is never modified, so concurrent readers need no locking.
type Catalog[E Entry] struct {
	name      string
	entries   []E
	index     map[string]int
	normalize func(string) (string, bool)
}

// Option configures a catalog at construction time.
type Option func(*options)

type options struct {
	normalize func(string) (string, bool)
}

// WithNormalizer maps lookup codes to the canonical key form before a
// membership test. Returning false means the code can never match.
func WithNormalizer(fn func(string) (string, bool)) Option {
	return func(o *options) {
		o.normalize = fn
	}
}

// New builds a catalog preserving the order of entries. Duplicate keys are rejected.
func New[E Entry](name string, entries []E, opts ...Option) (*Catalog[E], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Catalog[E]{
		name:      name,
		entries:   make([]E, 0, len(entries)),
		index:     make(map[string]int, len(entries)),
		normalize: o.normalize,
	}

	for _, e := range entries {
		key := e.Key()
		if key == "" {
			return nil, fmt.Errorf("%s catalog: entry %d has an empty key", name, len(c.entries))
		}
		if _, ok := c.index[key]; ok {
			return nil, fmt.Errorf("%s catalog: duplicate entry %q", name, key)
		}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

// Name of the catalog, used in error messages.
func (c *Catalog[E]) Name() string {
	return c.name
}

// Exists reports whether code identifies an entry of the catalog.
func (c *Catalog[E]) Exists(code string) bool {
	_, ok := c.Get(code)
	return ok
}

// Get returns the entry identified by code.
func (c *Catalog[E]) Get(code string) (E, bool) {
	var zero E

	key := code
	if c.normalize != nil {
		var ok bool
		key, ok = c.normalize(code)
		if !ok {
			return zero, false
		}
	}

	idx, ok := c.index[key]
	if !ok {
		return zero, false
	}
	return c.entries[idx], true
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog[E]) Entries() []E {
	out := make([]E, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len is the number of entries.
func (c *Catalog[E]) Len() int {
	return len(c.entries)
}

// Catalogs groups the three reference catalogs of the service.
type Catalogs struct {
	Locales   *Catalog[LocaleEntry]
	Timezones *Catalog[TimezoneEntry]
	Keymaps   *Catalog[KeymapEntry]
}
