package engine

import (
	"context"
	"errors"
	"io"

	"github.com/dosanma1/imgship/internal/executil"
)

// Strategy selects which build command variant is used.
type Strategy string

const (
	// StrategyBuildx uses the extended multi-platform build driver.
	StrategyBuildx Strategy = "buildx"
	// StrategyClassic uses the engine's default builder.
	StrategyClassic Strategy = "classic"
)

// BuildRequest holds the inputs of one image build.
type BuildRequest struct {
	Ref      string
	Platform string
	File     string
	Context  string
	NoCache  bool
	Args     []string // KEY=VALUE
	Strategy Strategy
}

// CLI is a container engine reached through its command-line binary.
type CLI struct {
	binary     string
	runner     executil.Runner
	translator *ErrorTranslator

	// Stdout and Stderr receive build and load progress. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates an engine driving binary (for example "docker") through runner.
func New(binary string, runner executil.Runner) *CLI {
	return &CLI{
		binary:     binary,
		runner:     runner,
		translator: NewErrorTranslator(),
	}
}

// Binary returns the engine executable name.
func (e *CLI) Binary() string {
	return e.binary
}

// Ping checks that the engine daemon answers and returns its version.
func (e *CLI) Ping(ctx context.Context) (string, error) {
	out, err := executil.Output(ctx, e.runner, e.binary, "info", "--format", "{{.ServerVersion}}")
	if err != nil {
		return "", e.wrap(ErrEngineUnreachable, err)
	}
	return out, nil
}

// BuildxAvailable reports whether the extended build driver is installed.
func (e *CLI) BuildxAvailable(ctx context.Context) bool {
	return executil.Quiet(ctx, e.runner, e.binary, "buildx", "version") == nil
}

// BuildArgs returns the engine arguments for req.
func BuildArgs(req BuildRequest) []string {
	var args []string
	if req.Strategy == StrategyBuildx {
		args = append(args, "buildx", "build", "--platform", req.Platform, "--load")
	} else {
		args = append(args, "build", "--platform", req.Platform)
	}
	args = append(args, "-t", req.Ref, "-f", req.File)
	if req.NoCache {
		args = append(args, "--no-cache")
	}
	for _, kv := range req.Args {
		args = append(args, "--build-arg", kv)
	}
	ctxPath := req.Context
	if ctxPath == "" {
		ctxPath = "."
	}
	return append(args, ctxPath)
}

// Build builds and loads the image into the local image store.
func (e *CLI) Build(ctx context.Context, req BuildRequest) error {
	err := e.runner.Run(ctx, executil.Command{
		Name:   e.binary,
		Args:   BuildArgs(req),
		Stdout: e.Stdout,
		Stderr: e.Stderr,
	})
	if err != nil {
		return e.wrap(ErrBuild, err)
	}
	return nil
}

// Architecture returns the architecture recorded in the image configuration.
func (e *CLI) Architecture(ctx context.Context, ref string) (string, error) {
	out, err := executil.Output(ctx, e.runner, e.binary, "image", "inspect", "--format", "{{.Architecture}}", ref)
	if err != nil {
		return "", e.wrap(ErrInspect, err)
	}
	return out, nil
}

// ImageID returns the short ID of ref in the local image store.
func (e *CLI) ImageID(ctx context.Context, ref string) (string, error) {
	out, err := executil.Output(ctx, e.runner, e.binary, "images", "--quiet", ref)
	if err != nil {
		return "", e.wrap(ErrInspect, err)
	}
	if out == "" {
		return "", &Error{Kind: ErrInspect, Err: errors.New("no such image: " + ref)}
	}
	return out, nil
}

// Save streams the archive of ref, with all its layers, into w.
func (e *CLI) Save(ctx context.Context, ref string, w io.Writer) error {
	err := e.runner.Run(ctx, executil.Command{
		Name:   e.binary,
		Args:   []string{"save", ref},
		Stdout: w,
	})
	if err != nil {
		return e.wrap(ErrSave, err)
	}
	return nil
}

// Load imports an archive into the local image store.
func (e *CLI) Load(ctx context.Context, archive string) error {
	err := e.runner.Run(ctx, executil.Command{
		Name:   e.binary,
		Args:   []string{"load", "-i", archive},
		Stdout: e.Stdout,
		Stderr: e.Stderr,
	})
	if err != nil {
		return e.wrap(ErrLoad, err)
	}
	return nil
}

func (e *CLI) wrap(kind, err error) error {
	var hint string
	var exitErr *executil.ExitError
	if errors.As(err, &exitErr) {
		hint = e.translator.Translate(exitErr.Stderr)
	}
	return &Error{Kind: kind, Hint: hint, Err: err}
}
