// Package ui renders user-facing progress lines and asks for confirmation.
package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes styled progress lines. Diagnostics go to slog instead.
type Printer struct {
	out io.Writer
	err io.Writer
}

// NewPrinter creates a printer writing to out, and errors to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// Stdout returns a printer bound to the process streams.
func Stdout() *Printer {
	return NewPrinter(os.Stdout, os.Stderr)
}

// Title prints a section heading.
func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", IconRocket, TitleStyle.Render(fmt.Sprintf(format, args...)))
}

// Step announces a pipeline stage.
func (p *Printer) Step(icon, format string, args ...any) {
	fmt.Fprintf(p.out, "\n%s %s\n", icon, StepStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints an indented detail line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "   %s\n", fmt.Sprintf(format, args...))
}

// Hint prints a dimmed line, such as a command the operator can run.
func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintf(p.out, "   %s\n", HelpStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", IconSuccess, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a non-fatal warning.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s%s\n", IconWarning, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line to the error stream.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.err, "%s %s\n", IconError, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}
