// Package keyboard applies a keyboard layout to the running graphical session.
package keyboard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pitabwire/util"
)

const (
	DefaultLocalectlPath = "/usr/bin/localectl"
	DefaultSetxkbmapPath = "/usr/bin/setxkbmap"
	DefaultDisplay       = ":0"
)

// Applier makes a keymap effective at the OS level.
type Applier interface {
	ApplyKeymap(ctx context.Context, keymap string) error
}

// Runner executes a command. It exists so tests can observe invocations.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// Command is a single external process invocation.
type Command struct {
	Path string
	Args []string
	// Env is appended to the current process environment.
	Env []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// CommandError is returned when one of the keyboard commands fails.
type CommandError struct {
	Command Command
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...) //nolint:gosec // paths come from service configuration
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.Bytes(), err
}

type commandApplier struct {
	localectl string
	setxkbmap string
	display   string
	runner    Runner
}

// Option configures the command based applier.
type Option func(*commandApplier)

// WithLocalectlPath overrides the localectl binary location.
func WithLocalectlPath(path string) Option {
	return func(a *commandApplier) {
		if path != "" {
			a.localectl = path
		}
	}
}

// WithSetxkbmapPath overrides the setxkbmap binary location.
func WithSetxkbmapPath(path string) Option {
	return func(a *commandApplier) {
		if path != "" {
			a.setxkbmap = path
		}
	}
}

// WithDisplay sets the X display setxkbmap talks to.
func WithDisplay(display string) Option {
	return func(a *commandApplier) {
		if display != "" {
			a.display = display
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(runner Runner) Option {
	return func(a *commandApplier) {
		if runner != nil {
			a.runner = runner
		}
	}
}

// NewCommandApplier returns an Applier that runs
// `localectl set-x11-keymap <id>` followed by `setxkbmap <id>`.
func NewCommandApplier(opts ...Option) Applier {
	a := &commandApplier{
		localectl: DefaultLocalectlPath,
		setxkbmap: DefaultSetxkbmapPath,
		display:   DefaultDisplay,
		runner:    execRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *commandApplier) ApplyKeymap(ctx context.Context, keymap string) error {
	commands := []Command{
		{Path: a.localectl, Args: []string{"set-x11-keymap", keymap}},
		{Path: a.setxkbmap, Args: []string{keymap}, Env: []string{"DISPLAY=" + a.display}},
	}

	log := util.Log(ctx).WithField("keymap", keymap)
	for _, c := range commands {
		out, err := a.runner.Run(ctx, c)
		if err != nil {
			return &CommandError{Command: c, Output: strings.TrimSpace(string(out)), Err: err}
		}
		log.WithField("command", c.String()).Debug("keyboard command finished")
	}

	return nil
}

type noopApplier struct{}

// Noop returns an Applier that does nothing, for sessions without a local display.
func Noop() Applier {
	return noopApplier{}
}

func (noopApplier) ApplyKeymap(ctx context.Context, keymap string) error {
	util.Log(ctx).WithField("keymap", keymap).Debug("skipping keyboard layout change, no local display")
	return nil
}
