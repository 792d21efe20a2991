// Package remote runs delegated commands: local processes such as vagrant and
// git, and single shell strings inside the development VM.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/rs/zerolog"
)

// Command is one local process invocation.
type Command struct {
	Name string
	Args []string
	Env  map[string]string // added to the inherited environment
	Dir  string            // working directory, empty for the current one
}

// String renders the command as a shell would read it.
func (c Command) String() string {
	return shellescape.QuoteCommand(append([]string{c.Name}, c.Args...))
}

// Runner starts local processes.
type Runner interface {
	// Run executes c with the operator's stdio attached.
	Run(ctx context.Context, c Command) error
	// Output executes c and returns its stdout.
	Output(ctx context.Context, c Command) ([]byte, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger zerolog.Logger

	// WaitDelay bounds how long a cancelled command may take to exit after
	// it has been sent an interrupt.
	WaitDelay time.Duration
}

// NewExecRunner returns a runner wired to the process stdio.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Logger:    logger,
		WaitDelay: 10 * time.Second,
	}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Env = append(cmd.Env, k+"="+c.Env[k])
	}
	// Let the delegated tool run its own interrupt handling instead of
	// being killed outright.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.WaitDelay
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.Logger.Debug().Str("cmd", c.String()).Str("dir", c.Dir).Msg("exec")
	return wrapExit(c, cmd.Run())
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.Logger.Debug().Str("cmd", c.String()).Str("dir", c.Dir).Msg("exec (capture)")
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			r.Logger.Debug().Str("cmd", c.Name).Str("stderr", msg).Msg("command failed")
		}
		return out, wrapExit(c, err)
	}
	return out, nil
}

func wrapExit(c Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &ExitError{Command: c.Name, Code: exitErr.ExitCode()}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return fmt.Errorf("run %s: %w", c.Name, err)
}
