package workspace

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Template file names, also used as destination names.
const (
	VagrantfileName     = "Vagrantfile"
	ComposeOverrideName = "docker-compose.override.yml"
)

//go:embed templates/Vagrantfile templates/docker-compose.override.yml
var embedded embed.FS

// ErrInvalidTemplate is returned for templates that fail validation.
var ErrInvalidTemplate = errors.New("invalid template")

// Templates holds the files `init` copies into a new environment.
type Templates struct {
	Vagrantfile     []byte
	ComposeOverride []byte
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatesFrom returns dir as a template source, or the built-in templates
// when dir is empty.
func TemplatesFrom(dir string) fs.FS {
	if dir == "" {
		return DefaultTemplates()
	}
	return os.DirFS(dir)
}

// LoadTemplates reads and validates both templates from fsys.
func LoadTemplates(fsys fs.FS) (*Templates, error) {
	vagrantfile, err := fs.ReadFile(fsys, VagrantfileName)
	if err != nil {
		return nil, fmt.Errorf("read %s template: %w", VagrantfileName, err)
	}
	if len(vagrantfile) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidTemplate, VagrantfileName)
	}

	override, err := fs.ReadFile(fsys, ComposeOverrideName)
	if err != nil {
		return nil, fmt.Errorf("read %s template: %w", ComposeOverrideName, err)
	}
	if err := validateComposeOverride(override); err != nil {
		return nil, err
	}

	return &Templates{Vagrantfile: vagrantfile, ComposeOverride: override}, nil
}

func validateComposeOverride(data []byte) error {
	var doc struct {
		Services map[string]yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, ComposeOverrideName, err)
	}
	if len(doc.Services) == 0 {
		return fmt.Errorf("%w: %s defines no services", ErrInvalidTemplate, ComposeOverrideName)
	}
	return nil
}
