package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitabwire/l10n/version"
)

func TestString(t *testing.T) {
	testCases := []struct {
		name     string
		version  string
		commit   string
		expected string
	}{
		{
			name:     "unset build information",
			expected: "l10n dev (none, unknown) " + runtime.Version(),
		},
		{
			name:     "release build",
			version:  "v1.4.0",
			commit:   " 3f2a9c1 ",
			expected: "l10n v1.4.0 (3f2a9c1, unknown) " + runtime.Version(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			previousVersion, previousCommit := version.Version, version.Commit
			t.Cleanup(func() { version.Version, version.Commit = previousVersion, previousCommit })

			version.Version, version.Commit = tc.version, tc.commit
			assert.Equal(t, tc.expected, version.String("l10n"))
		})
	}
}
