// Package executiltest provides a recording executil.Runner for tests.
package executiltest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/dosanma1/imgship/internal/executil"
)

// Response is what the fake returns for a matched command.
type Response struct {
	Stdout string
	Err    error
}

// Runner records every command and answers from Handler.
type Runner struct {
	// Handler decides the outcome of each command. A nil Handler succeeds
	// with no output.
	Handler func(cmd executil.Command) Response

	mu       sync.Mutex
	commands []executil.Command
}

// Run implements executil.Runner.
func (r *Runner) Run(_ context.Context, cmd executil.Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	var resp Response
	if r.Handler != nil {
		resp = r.Handler(cmd)
	}
	if resp.Stdout != "" && cmd.Stdout != nil {
		io.WriteString(cmd.Stdout, resp.Stdout)
	}
	return resp.Err
}

// Commands returns the recorded commands.
func (r *Runner) Commands() []executil.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]executil.Command(nil), r.commands...)
}

// Lines returns the recorded commands rendered with Command.String.
func (r *Runner) Lines() []string {
	var out []string
	for _, c := range r.Commands() {
		out = append(out, c.String())
	}
	return out
}

// Ran reports whether any recorded command line starts with prefix.
func (r *Runner) Ran(prefix string) bool {
	for _, l := range r.Lines() {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
