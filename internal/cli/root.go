// Package cli provides the command-line interface for devenv.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devenv/internal/remote"
)

// Command annotations read by the root pre-run hook.
const (
	annotationResolve = "devenv/resolve"
	annotationMarker  = "devenv/marker"
)

var (
	// needsEnvironment marks commands that target an existing environment.
	needsEnvironment = map[string]string{annotationResolve: "true", annotationMarker: "true"}
	// needsHost marks commands that need the host checks but no environment.
	needsHost = map[string]string{annotationResolve: "true"}
)

// ErrNoCommand is returned when devenv is run without a command.
var ErrNoCommand = errors.New("no command given")

// ErrUnknownCommand is returned for a command devenv does not have.
var ErrUnknownCommand = errors.New("unknown command")

func newRootCmd(a *App) *cobra.Command {
	var opts resolveOptions

	root := &cobra.Command{
		Use:   "devenv",
		Short: "devenv - drive the local development VM",
		Long: `devenv manages one local development VM.

It boots and stops the VM with Vagrant, and runs docker compose and the
stack's helper scripts inside it. Run it from anywhere below a directory
created by ` + "`devenv init`" + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationResolve] != "true" {
				return nil
			}
			return a.resolve(cmd.Context(), opts, cmd.Annotations[annotationMarker] == "true")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			if len(args) == 0 {
				return reported(ErrNoCommand)
			}
			hint := ""
			if s := cmd.SuggestionsFor(args[0]); len(s) > 0 {
				hint = fmt.Sprintf(", did you mean %q?", s[0])
			}
			return fmt.Errorf("%w %q%s", ErrUnknownCommand, args[0], hint)
		},
	}
	root.SetHelpCommand(newHelpCmd())

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: devenv.yaml in the working directory or the user config directory)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (default DEVENV_LOG_LEVEL or warn)")

	root.AddCommand(
		newInitCmd(a),
		newBootCmd(a),
		newShutdownCmd(a),
		newDestroyCmd(a),
		newStatusCmd(a),
		newContainersCmd(a),
		newRebuildCmd(a),
		newReloadCmd(a),
		newAppCmd(a),
		newRunCmd(a),
		newLogsCmd(a),
		newSSHCmd(a),
		newVersionCmd(a),
	)
	return root
}

// newHelpCmd replaces cobra's help command so that an unknown topic exits
// non-zero like an unknown command does.
func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, rest, err := cmd.Root().Find(args)
			if err != nil || target == nil || len(rest) > 0 {
				_ = cmd.Root().Help()
				return fmt.Errorf("%w %q", ErrUnknownCommand, strings.Join(args, " "))
			}
			return target.Help()
		},
	}
}

// Execute runs devenv with args and returns the process exit code.
func Execute(ctx context.Context, a *App, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if a.timer != nil {
		a.timer.Report(a.Stderr)
	}
	switch {
	case err == nil:
	case errors.Is(err, errReported):
	case errors.Is(err, context.Canceled):
	case errors.Is(err, remote.ErrExit):
		// The delegated command has already explained itself.
		a.log.Debug().Err(err).Msg("delegated command failed")
	default:
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// ExitCode maps an error to the process exit status. A delegated command's
// own status is passed through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	if code, ok := remote.ExitCode(err); ok {
		return code
	}
	return 1
}
