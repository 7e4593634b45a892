// Package version carries build information injected with -ldflags.
package version //nolint:revive // package name intentionally matches build-info convention

import (
	"fmt"
	"runtime"
	"strings"
)

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository string
	Version    string
	Commit     string
	Date       string
)

// String renders the build information on one line, e.g.
// "l10n v1.0.0 (abc123, 2026-01-02) go1.26.0".
func String(name string) string {
	return fmt.Sprintf("%s %s (%s, %s) %s",
		name,
		orDefault(Version, "dev"),
		orDefault(Commit, "none"),
		orDefault(Date, "unknown"),
		runtime.Version())
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
