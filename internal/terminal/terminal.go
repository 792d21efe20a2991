// Package terminal handles the local terminal for interactive VM sessions.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Console is the operator's terminal.
type Console struct {
	In  *os.File
	Out *os.File
}

// Current returns the console attached to stdin/stdout.
func Current() *Console {
	return &Console{In: os.Stdin, Out: os.Stdout}
}

// IsTerminal reports whether stdin is a terminal.
func (c *Console) IsTerminal() bool {
	return term.IsTerminal(int(c.In.Fd()))
}

// MakeRaw puts the terminal into raw mode. The returned function restores
// the previous state.
func (c *Console) MakeRaw() (func(), error) {
	fd := int(c.In.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, old) }, nil
}

// Size returns the terminal width and height, falling back to 80x24 when the
// size cannot be queried.
func (c *Console) Size() (width, height int) {
	w, h, err := term.GetSize(int(c.Out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}
