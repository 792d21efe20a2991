// Package logstream keeps a log-following command running for as long as the
// operator wants to watch it.
package logstream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDelay is the pause between a stream ending and the next attempt.
const DefaultDelay = time.Second

// Streamer restarts Stream every time it returns, until ctx is cancelled.
// There is no retry limit.
type Streamer struct {
	Stream func(ctx context.Context) error
	Delay  time.Duration
	Out    io.Writer
	Logger zerolog.Logger

	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// New returns a Streamer using the wall clock.
func New(stream func(ctx context.Context) error, delay time.Duration, out io.Writer, logger zerolog.Logger) *Streamer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Streamer{
		Stream: stream,
		Delay:  delay,
		Out:    out,
		Logger: logger,
		Now:    time.Now,
		After:  time.After,
	}
}

// Run blocks until ctx is cancelled and then returns ctx.Err().
func (s *Streamer) Run(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := s.Stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Logger.Debug().Err(err).Int("attempt", attempt).Msg("log stream ended")
		fmt.Fprintf(s.Out, "[%s] log stream ended, retrying in %s\n", s.Now().Format(time.RFC3339), s.Delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.After(s.Delay):
		}
	}
}
