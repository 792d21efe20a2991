package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/javanstorm/devenv/internal/host"
	"github.com/javanstorm/devenv/internal/workspace"
)

// FileName is the config file base name, without extension.
const FileName = "devenv"

// EnvPrefix prefixes every environment override: DEVENV_VM_DIR, DEVENV_TRANSPORT, ...
const EnvPrefix = "DEVENV"

// Transports accepted by the transport key.
const (
	TransportVagrant = "vagrant"
	TransportNative  = "native"
)

// Config holds all devenv configuration.
type Config struct {
	// Provider overrides provider detection.
	Provider string `mapstructure:"provider"`

	// Arch overrides host architecture detection.
	Arch string `mapstructure:"arch"`

	// VMDir is the directory inside the VM remote commands run from.
	VMDir string `mapstructure:"vm_dir"`

	// PublicHostname is passed to containers started by rebuild.
	PublicHostname string `mapstructure:"public_hostname"`

	// ComposeCommand is the compose invocation used inside the VM.
	ComposeCommand string `mapstructure:"compose_command"`

	// ComposeRepo names the repository that receives the compose override.
	ComposeRepo string `mapstructure:"compose_repo"`

	// Repositories are cloned by init, in order.
	Repositories []workspace.Repository `mapstructure:"repositories"`

	// TemplatesDir replaces the built-in Vagrantfile and compose override.
	TemplatesDir string `mapstructure:"templates_dir"`

	// Transport selects how commands reach the VM: vagrant or native.
	Transport string `mapstructure:"transport"`

	// RetryDelay is the pause between log stream attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// SkipPatch disables the Vagrant known-issue workaround.
	SkipPatch bool `mapstructure:"skip_patch"`

	// Patch describes the file the workaround replaces.
	Patch host.KnownIssue `mapstructure:"patch"`

	LogLevel string `mapstructure:"log_level"`

	// Timing prints a per-step timing report after each command.
	Timing bool `mapstructure:"timing"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		VMDir:          "/vagrant/stack",
		PublicHostname: "localhost",
		ComposeCommand: "docker compose",
		ComposeRepo:    "stack",
		Repositories: []workspace.Repository{
			{Name: "api", URL: "git@github.com:javanstorm/devenv-api.git"},
			{Name: "web", URL: "git@github.com:javanstorm/devenv-web.git"},
			{Name: "worker", URL: "git@github.com:javanstorm/devenv-worker.git"},
			{Name: "stack", URL: "git@github.com:javanstorm/devenv-stack.git"},
		},
		Transport:  TransportVagrant,
		RetryDelay: time.Second,
		Patch:      host.VagrantVirtualBox61,
		LogLevel:   "warn",
	}
}

// Options control where Load looks.
type Options struct {
	// File is an explicit config file; a missing file is an error.
	File string
	// SearchPaths are searched in order for devenv.yaml.
	SearchPaths []string
}

// Load reads configuration from defaults, the config file and the environment.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Vagrant's own variable wins over ours.
	if err := v.BindEnv("provider", "VAGRANT_DEFAULT_PROVIDER", EnvPrefix+"_PROVIDER"); err != nil {
		return nil, err
	}

	// Config file is optional unless named explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("arch", d.Arch)
	v.SetDefault("vm_dir", d.VMDir)
	v.SetDefault("public_hostname", d.PublicHostname)
	v.SetDefault("compose_command", d.ComposeCommand)
	v.SetDefault("compose_repo", d.ComposeRepo)
	repos := make([]map[string]any, 0, len(d.Repositories))
	for _, r := range d.Repositories {
		repos = append(repos, map[string]any{"name": r.Name, "url": r.URL})
	}
	v.SetDefault("repositories", repos)
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("retry_delay", d.RetryDelay)
	v.SetDefault("skip_patch", d.SkipPatch)
	v.SetDefault("patch.name", d.Patch.Name)
	v.SetDefault("patch.path", d.Patch.Path)
	v.SetDefault("patch.faulty_sha256", d.Patch.FaultySHA256)
	v.SetDefault("patch.url", d.Patch.URL)
	v.SetDefault("patch.fixed_sha256", d.Patch.FixedSHA256)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("timing", d.Timing)
}
