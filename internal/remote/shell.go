package remote

import (
	"context"

	"github.com/alessio/shellescape"
)

// Shell runs commands inside the VM.
type Shell interface {
	// Exec runs one shell string inside the VM and waits for it.
	Exec(ctx context.Context, script string) error
	// Interactive opens a login shell attached to the operator's terminal.
	Interactive(ctx context.Context) error
}

// Remote formats VM commands so that each runs from a fixed directory.
type Remote struct {
	Shell Shell
	Dir   string
}

// Script returns the exact string handed to the shell for cmd.
func (r *Remote) Script(cmd string) string {
	return "cd " + shellescape.Quote(r.Dir) + " && " + cmd
}

// Run executes cmd inside the VM from r.Dir.
func (r *Remote) Run(ctx context.Context, cmd string) error {
	return r.Shell.Exec(ctx, r.Script(cmd))
}

// Interactive opens a shell in the VM.
func (r *Remote) Interactive(ctx context.Context) error {
	return r.Shell.Interactive(ctx)
}

// VagrantShell reaches the VM through `vagrant ssh`.
type VagrantShell struct {
	Runner Runner
	// Root is the environment root; vagrant finds its Vagrantfile from there.
	Root string
}

// Exec implements Shell.
func (s *VagrantShell) Exec(ctx context.Context, script string) error {
	return s.Runner.Run(ctx, Command{
		Name: "vagrant",
		Args: []string{"ssh", "-c", script},
		Dir:  s.Root,
	})
}

// Interactive implements Shell.
func (s *VagrantShell) Interactive(ctx context.Context) error {
	return s.Runner.Run(ctx, Command{
		Name: "vagrant",
		Args: []string{"ssh"},
		Dir:  s.Root,
	})
}
