// Package timing records how long each delegated step takes.
package timing

import (
	"fmt"
	"io"
	"time"
)

// Timer tracks durations of named phases.
type Timer struct {
	now    func() time.Time
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase represents a timed phase with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
	Failed   bool
}

// New creates a new Timer starting from now.
func New() *Timer {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Timer {
	start := now()
	return &Timer{now: now, start: start, last: start}
}

// Mark records a named phase ending now.
// Duration is time since the last mark, or since start for the first one.
func (t *Timer) Mark(name string) {
	now := t.now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// Track runs fn and records its duration under name.
func (t *Timer) Track(name string, fn func() error) error {
	begin := t.now()
	err := fn()
	end := t.now()
	t.phases = append(t.phases, Phase{Name: name, Duration: end.Sub(begin), Failed: err != nil})
	t.last = end
	return err
}

// Total returns the total elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	return t.now().Sub(t.start)
}

// Phases returns all recorded phases.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// Report prints a timing report to the given writer.
func (t *Timer) Report(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "=== Timing ===")
	for _, p := range t.phases {
		status := ""
		if p.Failed {
			status = " (failed)"
		}
		fmt.Fprintf(w, "  %-10s %s%s\n", formatDuration(p.Duration), p.Name, status)
	}
	fmt.Fprintf(w, "  %-10s TOTAL\n", formatDuration(t.Total()))
	fmt.Fprintln(w, "==============")
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
