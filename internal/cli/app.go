package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/javanstorm/devenv/internal/config"
	"github.com/javanstorm/devenv/internal/dispatch"
	"github.com/javanstorm/devenv/internal/host"
	"github.com/javanstorm/devenv/internal/logging"
	"github.com/javanstorm/devenv/internal/remote"
	"github.com/javanstorm/devenv/internal/timing"
	"github.com/javanstorm/devenv/internal/ui"
	"github.com/javanstorm/devenv/internal/workspace"
)

// App carries the process environment the commands run against. Tests
// replace the hooks; NewApp wires the real ones.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Getwd  func() (string, error)
	Setenv func(key, value string) error

	// Resolver detects the platform and Checker finds the required tools.
	Resolver *host.Resolver
	Checker  *host.Checker

	// Runner starts local processes. Nil means the real os/exec runner.
	Runner remote.Runner
	// Patcher, when nil, is built from Runner.
	Patcher *host.Patcher

	// Set by resolve.
	cfg      *config.Config
	log      zerolog.Logger
	platform host.Platform
	root     string
	timer    *timing.Timer
}

// NewApp returns an App bound to the running process.
func NewApp() *App {
	return &App{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Getwd:    os.Getwd,
		Setenv:   os.Setenv,
		Resolver: host.NewResolver(),
		Checker:  host.NewChecker(),
	}
}

// errReported marks failures whose explanation was already printed.
var errReported = errors.New("cli: reported")

type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() []error { return []error{e.err, errReported} }
func reported(err error) error { return &reportedError{err: err} }

// resolveOptions are the global flags.
type resolveOptions struct {
	configFile string
	logLevel   string
}

// resolve performs environment resolution: config, platform, dependencies,
// the known-issue patch and, when needMarker is set, the environment root.
func (a *App) resolve(ctx context.Context, opts resolveOptions, needMarker bool) error {
	out := ui.New(a.Stderr)

	cwd, err := a.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// The environment root also holds a devenv.yaml. A missing marker only
	// matters to commands that need one.
	root, rootErr := workspace.FindRoot(cwd)

	cfg, err := config.Load(config.Options{File: opts.configFile, SearchPaths: config.SearchPaths(cwd, root)})
	if err != nil {
		return err
	}
	if problems := config.Validate(cfg); len(problems) > 0 {
		fmt.Fprint(a.Stderr, config.FormatValidationErrors(problems))
		if config.HasFatal(problems) {
			return reported(errors.New("invalid configuration"))
		}
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil && opts.logLevel != "" {
		return err
	}
	a.log = logging.New(a.Stderr, lvl)
	if cfg.File != "" {
		a.log.Debug().Str("file", cfg.File).Msg("config loaded")
	}
	if cfg.Timing {
		a.timer = timing.New()
	}

	a.platform, err = a.Resolver.Resolve(cfg.Arch, cfg.Provider)
	if err != nil {
		return err
	}
	if err := a.platform.Export(a.Setenv); err != nil {
		return err
	}
	a.log.Debug().Stringer("platform", a.platform).Msg("platform resolved")
	a.mark("platform")

	if err := a.Checker.Check(host.RequiredDependencies(a.platform.Provider)); err != nil {
		var missing *host.MissingError
		if errors.As(err, &missing) {
			out.Heading("%s is required but %s was not found on PATH.", missing.Dependency.Name, missing.Dependency.Command)
			out.Faint("%s", missing.Dependency.Description)
			out.Hint("%s", missing.Guidance())
			return reported(err)
		}
		return err
	}
	a.mark("dependencies")

	if !cfg.SkipPatch {
		a.applyPatch(ctx, out)
		a.mark("patch")
	}

	if needMarker {
		if rootErr != nil {
			if errors.Is(rootErr, workspace.ErrNoMarker) {
				out.Heading("Not inside a devenv environment: no %s found in %s or any parent.", workspace.Marker, cwd)
				out.Hint("run `devenv init` in an empty directory to create one")
				return reported(rootErr)
			}
			return rootErr
		}
		a.root = root
		a.log.Debug().Str("root", root).Msg("environment found")
	}
	return nil
}

func (a *App) applyPatch(ctx context.Context, out *ui.Printer) {
	p := a.Patcher
	if p == nil {
		p = host.NewPatcher(a.runner(), a.log)
	}
	result, err := p.Apply(ctx, a.cfg.Patch)
	if err != nil {
		out.Warning("could not patch %s: %v", a.cfg.Patch.Path, err)
		return
	}
	a.log.Debug().Stringer("result", result).Msg("known issue check")
	switch result {
	case host.PatchApplied:
		out.Faint("patched %s (backup at %s.bak)", a.cfg.Patch.Path, a.cfg.Patch.Path)
	case host.PatchUnverified:
		out.Warning("%s is installed but cannot be checked for the %s issue", a.cfg.Patch.Path, a.cfg.Patch.Name)
		out.Hint("set patch.faulty_sha256 and patch.fixed_sha256 in devenv.yaml, or skip_patch: true")
	}
}

func (a *App) mark(phase string) {
	if a.timer != nil {
		a.timer.Mark(phase)
	}
}

func (a *App) runner() remote.Runner {
	if a.Runner == nil {
		a.Runner = remote.NewExecRunner(a.log)
	}
	return a.Runner
}

func (a *App) shell() remote.Shell {
	if a.cfg.Transport == config.TransportNative {
		return remote.NewNativeShell(a.runner(), a.root, a.log)
	}
	return &remote.VagrantShell{Runner: a.runner(), Root: a.root}
}

func (a *App) dispatcher() *dispatch.Dispatcher {
	params := dispatch.DefaultParams(a.platform.Provider)
	params.ComposeCommand = a.cfg.ComposeCommand
	params.PublicHostname = a.cfg.PublicHostname
	return &dispatch.Dispatcher{
		Local:  a.runner(),
		Remote: &remote.Remote{Shell: a.shell(), Dir: a.cfg.VMDir},
		Root:   a.root,
		Params: params,
		UI:     ui.New(a.Stdout),
		Logger: a.log,
		Timer:  a.timer,
	}
}
