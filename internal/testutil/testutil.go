// Package testutil provides fakes and fixtures shared by devenv tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/javanstorm/devenv/internal/remote"
)

// FakeRunner records local commands instead of running them.
type FakeRunner struct {
	mu       sync.Mutex
	Commands []remote.Command

	// Fail maps a rendered command prefix to the error it returns.
	Fail map[string]error

	// Outputs maps a rendered command prefix to the stdout of Output.
	Outputs map[string][]byte

	// OnRun, if set, is called for every command before Fail is consulted.
	OnRun func(c remote.Command) error
}

func (f *FakeRunner) record(c remote.Command) error {
	f.mu.Lock()
	f.Commands = append(f.Commands, c)
	f.mu.Unlock()

	if f.OnRun != nil {
		if err := f.OnRun(c); err != nil {
			return err
		}
	}
	rendered := c.String()
	for prefix, err := range f.Fail {
		if strings.HasPrefix(rendered, prefix) {
			return err
		}
	}
	return nil
}

// Run implements remote.Runner.
func (f *FakeRunner) Run(_ context.Context, c remote.Command) error {
	return f.record(c)
}

// Output implements remote.Runner.
func (f *FakeRunner) Output(_ context.Context, c remote.Command) ([]byte, error) {
	if err := f.record(c); err != nil {
		return nil, err
	}
	rendered := c.String()
	for prefix, out := range f.Outputs {
		if strings.HasPrefix(rendered, prefix) {
			return out, nil
		}
	}
	return nil, nil
}

// Rendered returns every recorded command as a shell string.
func (f *FakeRunner) Rendered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Commands))
	for _, c := range f.Commands {
		out = append(out, c.String())
	}
	return out
}

// FakeShell records remote scripts instead of running them.
type FakeShell struct {
	mu           sync.Mutex
	Scripts      []string
	Interactives int

	// Fail maps a script substring to the error Exec returns.
	Fail map[string]error

	// OnExec, if set, replaces the Fail lookup.
	OnExec func(ctx context.Context, script string) error
}

// Exec implements remote.Shell.
func (f *FakeShell) Exec(ctx context.Context, script string) error {
	f.mu.Lock()
	f.Scripts = append(f.Scripts, script)
	f.mu.Unlock()

	if f.OnExec != nil {
		return f.OnExec(ctx, script)
	}
	for substr, err := range f.Fail {
		if strings.Contains(script, substr) {
			return err
		}
	}
	return nil
}

// Interactive implements remote.Shell.
func (f *FakeShell) Interactive(context.Context) error {
	f.mu.Lock()
	f.Interactives++
	f.mu.Unlock()
	return nil
}

// Recorded returns a copy of the scripts seen so far.
func (f *FakeShell) Recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Scripts...)
}

// LookPath returns an exec.LookPath replacement that only finds the given tools.
func LookPath(found ...string) func(string) (string, error) {
	set := make(map[string]bool, len(found))
	for _, f := range found {
		set[f] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", &os.PathError{Op: "lookpath", Path: name, Err: os.ErrNotExist}
	}
}

// Workspace creates an environment root holding the marker file and returns
// it together with a nested directory below it.
func Workspace(t *testing.T, marker string) (root, nested string) {
	t.Helper()

	root = t.TempDir()
	if err := os.WriteFile(filepath.Join(root, marker), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	nested = filepath.Join(root, "stack", "services", "api")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("create nested dir: %v", err)
	}
	return root, nested
}
