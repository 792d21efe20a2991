package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devenv/internal/ui"
	"github.com/javanstorm/devenv/internal/workspace"
)

func newInitCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new environment in the current directory",
		Long: `Create a development environment in the current, empty directory.

init writes the Vagrantfile, installs the Vagrant plugins the provider
needs, clones the project repositories and marks the directory as an
environment root. The directory must be completely empty, hidden files
included.`,
		Annotations: needsHost,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			var templates fs.FS = workspace.DefaultTemplates()
			if a.cfg.TemplatesDir != "" {
				templates = workspace.TemplatesFrom(a.cfg.TemplatesDir)
			}

			in := &workspace.Initializer{
				Runner:       a.runner(),
				Provider:     a.platform.Provider,
				Repositories: a.cfg.Repositories,
				ComposeRepo:  a.cfg.ComposeRepo,
				Templates:    templates,
				Logger:       a.log,
				Out:          a.Stdout,
			}
			err = in.Init(cmd.Context(), dir)
			if errors.Is(err, workspace.ErrNotEmpty) {
				out := ui.New(a.Stderr)
				out.Heading("%s is not empty.", dir)
				out.Hint("run `devenv init` in a new, empty directory")
				return reported(err)
			}
			if err != nil {
				return err
			}

			out := ui.New(a.Stdout)
			out.Heading("Environment ready in %s", dir)
			out.Hint("devenv boot")
			return nil
		},
	}
}
