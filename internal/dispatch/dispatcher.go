package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/javanstorm/devenv/internal/remote"
	"github.com/javanstorm/devenv/internal/timing"
	"github.com/javanstorm/devenv/internal/ui"
)

// Dispatcher runs plans against one environment.
type Dispatcher struct {
	Local  remote.Runner
	Remote *remote.Remote
	// Root is the environment root; local steps run from there.
	Root   string
	Params Params
	UI     *ui.Printer
	Logger zerolog.Logger
	// Timer, when set, records every step.
	Timer *timing.Timer
}

// Dispatch validates args for verb and runs its plan.
func (d *Dispatcher) Dispatch(ctx context.Context, verb string, args []string) error {
	v, ok := Lookup(verb)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownVerb, verb)
	}
	steps, err := v.Steps(d.Params, args)
	if err != nil {
		return err
	}
	return d.Execute(ctx, steps)
}

// Execute runs steps in order. The first failure stops the plan unless the
// step tolerates it.
func (d *Dispatcher) Execute(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		err := d.track(step, func() error { return d.run(ctx, step) })
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if step.IgnoreFailure {
			d.Logger.Warn().Err(err).Str("step", step.String()).Msg("step failed, continuing")
			continue
		}
		return err
	}
	return nil
}

func (d *Dispatcher) track(step Step, fn func() error) error {
	if d.Timer == nil || step.Kind == Notice {
		return fn()
	}
	return d.Timer.Track(step.String(), fn)
}

func (d *Dispatcher) run(ctx context.Context, step Step) error {
	switch step.Kind {
	case Local:
		c := step.Command
		if c.Dir == "" {
			c.Dir = d.Root
		}
		return d.Local.Run(ctx, c)
	case Remote:
		d.Logger.Debug().Str("script", d.Remote.Script(step.Script)).Msg("remote")
		return d.Remote.Run(ctx, step.Script)
	case Interactive:
		return d.Remote.Interactive(ctx)
	case Notice:
		d.UI.Warning("%s", step.Message)
		return nil
	default:
		return fmt.Errorf("dispatch: unknown step kind %d", step.Kind)
	}
}
