package keyboard_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n/keyboard"
)

type recordingRunner struct {
	mu       sync.Mutex
	commands []keyboard.Command
	failOn   int
}

func (r *recordingRunner) Run(_ context.Context, cmd keyboard.Command) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, cmd)
	if r.failOn > 0 && len(r.commands) == r.failOn {
		return []byte("cannot open display"), errors.New("exit status 1")
	}
	return nil, nil
}

func TestApplyKeymapRunsBothCommands(t *testing.T) {
	runner := &recordingRunner{}
	applier := keyboard.NewCommandApplier(
		keyboard.WithRunner(runner),
		keyboard.WithDisplay(":1"),
	)

	require.NoError(t, applier.ApplyKeymap(t.Context(), "cz(qwerty)"))
	require.Len(t, runner.commands, 2)

	assert.Equal(t, keyboard.DefaultLocalectlPath, runner.commands[0].Path)
	assert.Equal(t, []string{"set-x11-keymap", "cz(qwerty)"}, runner.commands[0].Args)
	assert.Empty(t, runner.commands[0].Env)

	assert.Equal(t, keyboard.DefaultSetxkbmapPath, runner.commands[1].Path)
	assert.Equal(t, []string{"cz(qwerty)"}, runner.commands[1].Args)
	assert.Equal(t, []string{"DISPLAY=:1"}, runner.commands[1].Env)
}

func TestApplyKeymapFailures(t *testing.T) {
	testCases := []struct {
		name          string
		failOn        int
		expectedCalls int
		failedPath    string
	}{
		{
			name:          "localectl fails and setxkbmap is skipped",
			failOn:        1,
			expectedCalls: 1,
			failedPath:    "/opt/localectl",
		},
		{
			name:          "setxkbmap fails",
			failOn:        2,
			expectedCalls: 2,
			failedPath:    keyboard.DefaultSetxkbmapPath,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &recordingRunner{failOn: tc.failOn}
			applier := keyboard.NewCommandApplier(
				keyboard.WithRunner(runner),
				keyboard.WithLocalectlPath("/opt/localectl"),
			)

			err := applier.ApplyKeymap(t.Context(), "de")
			require.Error(t, err)
			require.Len(t, runner.commands, tc.expectedCalls)

			var cmdErr *keyboard.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, tc.failedPath, cmdErr.Command.Path)
			assert.Equal(t, "cannot open display", cmdErr.Output)
			assert.Contains(t, err.Error(), "exit status 1")
		})
	}
}

func TestApplyKeymapWithRealProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available")
	}

	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\necho \"$0 $* $DISPLAY\" >> " + logFile + "\n"

	localectl := filepath.Join(dir, "localectl")
	setxkbmap := filepath.Join(dir, "setxkbmap")
	require.NoError(t, os.WriteFile(localectl, []byte(script), 0o700)) //nolint:gosec // test helper script
	require.NoError(t, os.WriteFile(setxkbmap, []byte(script), 0o700)) //nolint:gosec // test helper script

	applier := keyboard.NewCommandApplier(
		keyboard.WithLocalectlPath(localectl),
		keyboard.WithSetxkbmapPath(setxkbmap),
		keyboard.WithDisplay(":7"),
	)
	require.NoError(t, applier.ApplyKeymap(t.Context(), "es"))

	calls, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(calls), "set-x11-keymap es")
	assert.Contains(t, string(calls), setxkbmap+" es :7")
}

func TestApplyKeymapMissingBinary(t *testing.T) {
	applier := keyboard.NewCommandApplier(
		keyboard.WithLocalectlPath(filepath.Join(t.TempDir(), "does-not-exist")),
	)

	err := applier.ApplyKeymap(t.Context(), "us")
	var cmdErr *keyboard.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestNoop(t *testing.T) {
	require.NoError(t, keyboard.Noop().ApplyKeymap(t.Context(), "us"))
}
