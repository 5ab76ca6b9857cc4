// Package executil runs external tools (the container engine, ssh, rsync,
// compose) and reports failures with the exit status and the command line.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// stderrTail bounds how much stderr is kept for error messages.
const stderrTail = 4096

// Command describes one external process invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String returns a printable, shell-safe representation of the command.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + ShellQuoteArgs(c.Args)
}

// Runner executes commands. Tests substitute a recording fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError is returned when a command ran but did not succeed.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("command failed (exit=%d): %s", e.Code, e.Command)
	}
	return fmt.Sprintf("failed to run command: %s: %v", e.Command, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// NewExecRunner returns a runner logging through logger, or slog.Default when nil.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Logger: logger}
}

// Run executes cmd and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout

	tail := &tailBuffer{limit: stderrTail}
	if cmd.Stderr != nil {
		c.Stderr = io.MultiWriter(cmd.Stderr, tail)
	} else {
		c.Stderr = tail
	}

	full := cmd.String()
	logger.Debug("running command", "cmd", full, "dir", cmd.Dir)
	start := time.Now()

	err := c.Run()
	logger.Debug("command finished", "cmd", full, "elapsed", time.Since(start).Round(time.Millisecond))
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("command canceled: %s: %w", full, ctx.Err())
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ExitError{
		Command: full,
		Code:    code,
		Stderr:  strings.TrimSpace(tail.String()),
		Err:     err,
	}
}

// Output runs a command and returns its trimmed stdout.
func Output(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	var out bytes.Buffer
	err := r.Run(ctx, Command{Name: name, Args: args, Stdout: &out})
	return strings.TrimSpace(out.String()), err
}

// Quiet runs a command discarding its output; only the result matters.
func Quiet(ctx context.Context, r Runner, name string, args ...string) error {
	return r.Run(ctx, Command{Name: name, Args: args, Stdout: io.Discard})
}

// ShellQuoteArgs returns a printable, shell-safe representation of args.
func ShellQuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = ShellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// ShellQuote quotes s for a POSIX shell when it contains special characters.
func ShellQuote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'`$\\*?[]{}()<>|&;~#!") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
