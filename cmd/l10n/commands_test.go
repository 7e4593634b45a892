package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		contains string
		wantErr  bool
	}{
		{name: "locales", args: []string{"catalog", "locales"}, contains: "en_US.UTF-8\n"},
		{name: "timezones", args: []string{"catalog", "timezones"}, contains: "Atlantic/Canary\n"},
		{name: "keymaps", args: []string{"catalog", "keymaps"}, contains: "cz(qwerty)\n"},
		{name: "unknown catalog", args: []string{"catalog", "currencies"}, wantErr: true},
		{name: "missing argument", args: []string{"catalog"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tc.contains)
		})
	}
}

func TestOpenAPICommand(t *testing.T) {
	out, err := execute(t, "openapi")
	require.NoError(t, err)
	assert.Contains(t, out, `"/l10n/config"`)

	_, err = execute(t, "openapi", "missing")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "l10n dev"))
}

func TestPrintRoutes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, []l10n.RouteInfo{
		{Method: "GET", Path: "/l10n/config", Handler: "get_config"},
		{Method: "PUT", Path: "/l10n/config", Handler: "set_config"},
	}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"METHOD", "PATH", "HANDLER"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"PUT", "/l10n/config", "set_config"}, strings.Fields(lines[2]))
}
