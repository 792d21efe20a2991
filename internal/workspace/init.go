package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/javanstorm/devenv/internal/remote"
	"github.com/javanstorm/devenv/pkg/provider"
)

// ErrNotEmpty is returned by Init for a directory that already has entries.
var ErrNotEmpty = errors.New("directory is not empty")

// Repository is one project repository cloned by init.
type Repository struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Initializer bootstraps a new environment in an empty directory.
type Initializer struct {
	Runner       remote.Runner
	Provider     provider.Provider
	Repositories []Repository
	// ComposeRepo is the repository that receives the compose override.
	ComposeRepo string
	Templates   fs.FS
	Logger      zerolog.Logger
	Out         io.Writer
}

// Init copies the templates, installs the Vagrant plugins, clones the
// repositories and finally writes the marker. Nothing is touched unless dir
// is empty.
func (i *Initializer) Init(ctx context.Context, dir string) error {
	if err := ensureEmpty(dir); err != nil {
		return err
	}
	tmpl, err := LoadTemplates(i.Templates)
	if err != nil {
		return err
	}

	fmt.Fprintf(i.Out, "Creating devenv environment in %s (provider: %s)\n", dir, i.Provider)

	if err := os.WriteFile(filepath.Join(dir, VagrantfileName), tmpl.Vagrantfile, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", VagrantfileName, err)
	}

	for _, plugin := range i.Provider.Plugins() {
		fmt.Fprintf(i.Out, "Installing vagrant plugin %s...\n", plugin)
		if err := i.Runner.Run(ctx, remote.Command{
			Name: "vagrant",
			Args: []string{"plugin", "install", plugin},
			Dir:  dir,
		}); err != nil {
			return fmt.Errorf("install plugin %s: %w", plugin, err)
		}
	}

	for _, repo := range i.Repositories {
		fmt.Fprintf(i.Out, "Cloning %s...\n", repo.Name)
		if err := i.Runner.Run(ctx, remote.Command{
			Name: "git",
			Args: []string{"clone", repo.URL, repo.Name},
			Dir:  dir,
		}); err != nil {
			return fmt.Errorf("clone %s: %w", repo.Name, err)
		}
	}

	composeDir := filepath.Join(dir, i.ComposeRepo)
	if err := os.MkdirAll(composeDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", composeDir, err)
	}
	if err := os.WriteFile(filepath.Join(composeDir, ComposeOverrideName), tmpl.ComposeOverride, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ComposeOverrideName, err)
	}

	if err := WriteMarker(dir); err != nil {
		return err
	}
	i.Logger.Debug().Str("root", dir).Msg("environment initialised")
	fmt.Fprintln(i.Out, "Done. Run 'devenv boot' to start the VM.")
	return nil
}

// ensureEmpty fails if dir has any entry, hidden ones included.
func ensureEmpty(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	return fmt.Errorf("%w: %s contains %s", ErrNotEmpty, dir, names[0])
}
