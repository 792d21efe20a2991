package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devenv/internal/dispatch"
	"github.com/javanstorm/devenv/internal/logstream"
)

func newLogsCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "logs")
	cmd.Long = `Follow the logs of every compose service.

When the stream ends, for example because the VM rebooted or the
containers were recreated, it is restarted after a short delay. Press
Ctrl+C to stop.`
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v, _ := dispatch.Lookup("logs")
		d := a.dispatcher()
		steps, err := v.Steps(d.Params, args)
		if err != nil {
			return err
		}
		stream := logstream.New(func(ctx context.Context) error {
			return d.Execute(ctx, steps)
		}, a.cfg.RetryDelay, a.Stderr, a.log)
		return stream.Run(cmd.Context())
	}
	return cmd
}
