package loader

import (
	"context"
	"io"
	"slices"

	"github.com/dosanma1/imgship/internal/compose"
	"github.com/dosanma1/imgship/internal/executil"
)

// ComposeStarter runs "up -d" with whichever compose tool the host has.
type ComposeStarter struct {
	Runner executil.Runner
	Engine string
	Stdout io.Writer
	Stderr io.Writer
}

// Up starts the services of composeFile detached, from dir.
func (c *ComposeStarter) Up(ctx context.Context, dir, composeFile string) error {
	argv, err := compose.Command(ctx, c.Runner, c.Engine)
	if err != nil {
		return err
	}
	return c.Runner.Run(ctx, executil.Command{
		Name:   argv[0],
		Args:   slices.Concat(argv[1:], []string{"-f", composeFile, "up", "-d"}),
		Dir:    dir,
		Stdout: c.Stdout,
		Stderr: c.Stderr,
	})
}
