// Package ui styles the few lines of operator-facing text devenv prints
// itself: warnings, install guidance and headings.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette. Colors are ANSI 256 codes.
type Theme struct {
	Warning lipgloss.Color
	Hint    lipgloss.Color
	Heading lipgloss.Color
	Faint   lipgloss.Color
}

// DefaultTheme suits dark and light terminals alike.
var DefaultTheme = Theme{
	Warning: lipgloss.Color("214"),
	Hint:    lipgloss.Color("39"),
	Heading: lipgloss.Color("252"),
	Faint:   lipgloss.Color("245"),
}

// Printer writes styled lines to one writer. Colour is dropped when the writer
// is not a terminal.
type Printer struct {
	w io.Writer

	warning lipgloss.Style
	hint    lipgloss.Style
	heading lipgloss.Style
	faint   lipgloss.Style
}

// New returns a Printer for w using DefaultTheme.
func New(w io.Writer) *Printer {
	return NewWithTheme(w, DefaultTheme)
}

// NewWithTheme returns a Printer for w.
func NewWithTheme(w io.Writer, theme Theme) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		warning: r.NewStyle().Foreground(theme.Warning).Bold(true),
		hint:    r.NewStyle().Foreground(theme.Hint),
		heading: r.NewStyle().Foreground(theme.Heading).Bold(true),
		faint:   r.NewStyle().Foreground(theme.Faint),
	}
}

// Warning prints msg prefixed with "warning:".
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render("warning: "+fmt.Sprintf(format, args...)))
}

// Heading prints a bold line.
func (p *Printer) Heading(format string, args ...any) {
	fmt.Fprintln(p.w, p.heading.Render(fmt.Sprintf(format, args...)))
}

// Hint prints an indented suggestion, typically a command to run.
func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+p.hint.Render(fmt.Sprintf(format, args...)))
}

// Faint prints low-emphasis text.
func (p *Printer) Faint(format string, args ...any) {
	fmt.Fprintln(p.w, p.faint.Render(fmt.Sprintf(format, args...)))
}
