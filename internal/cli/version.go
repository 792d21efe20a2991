package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devenv/internal/version"
)

func newVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit hash, and build date of devenv.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.Stdout, version.Get())
		},
	}
}
