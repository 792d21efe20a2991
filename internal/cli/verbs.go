package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devenv/internal/dispatch"
)

// verbCmd builds a command that runs the dispatch plan registered as name.
func verbCmd(a *App, name string) *cobra.Command {
	v, ok := dispatch.Lookup(name)
	if !ok {
		panic("cli: no dispatch verb " + name)
	}
	return &cobra.Command{
		Use:         strings.TrimSpace(v.Name + " " + v.Usage),
		Short:       v.Short,
		Annotations: needsEnvironment,
		Args:        cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher().Dispatch(cmd.Context(), v.Name, args)
		},
	}
}

func newBootCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "boot")
	cmd.Long = `Start the VM with the resolved provider.

The provider is parallels on Apple Silicon Macs and virtualbox everywhere
else. Set VAGRANT_DEFAULT_PROVIDER or DEVENV_PROVIDER to override it.`
	return cmd
}

func newShutdownCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "shutdown")
	cmd.Long = `Stop the application stack inside the VM, then halt the VM.

The VM is halted even if stopping the stack fails.`
	return cmd
}

func newDestroyCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "destroy")
	cmd.Long = `Destroy the VM without asking for confirmation. Its disks and all
container data are deleted; the cloned repositories on the host are kept.`
	return cmd
}

func newStatusCmd(a *App) *cobra.Command {
	return verbCmd(a, "status")
}

func newContainersCmd(a *App) *cobra.Command {
	return verbCmd(a, "containers")
}

func newRebuildCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "rebuild")
	cmd.Long = `Rebuild one compose service and recreate its container.

The service is built, stopped, removed and started again detached, with
PUBLIC_HOSTNAME set from the public_hostname setting.`
	cmd.Example = "  devenv rebuild api"
	return cmd
}

func newReloadCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "reload")
	cmd.Long = `Run the stack's stop, configure and start scripts in order. A failing
script stops the sequence.`
	return cmd
}

func newAppCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "app")
	cmd.Long = `Run ./bin/app inside the VM. All arguments, flags included, are passed
through unchanged.`
	cmd.Example = "  devenv app migrate --step 2\n  devenv app console"
	cmd.DisableFlagParsing = true
	return cmd
}

func newRunCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "run")
	cmd.Long = `Run a shell command inside the VM from the stack directory.

The arguments are joined with spaces and handed to the remote shell as one
string, so pipes and redirections work when quoted on the host.`
	cmd.Example = `  devenv run docker compose ps
  devenv run 'tail -n 50 log/app.log | grep ERROR'`
	cmd.DisableFlagParsing = true
	return cmd
}
