// Package loader imports a shipped package on the target host: it loads every
// archive in a directory, optionally starts the compose services and offers
// to remove the archives afterwards.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/ui"
)

var (
	ErrNoArchives = errors.New("no image archives found")
	ErrLoadFailed = errors.New("some archives failed to load")
)

// ArchiveLoader imports one archive into the local image store.
type ArchiveLoader interface {
	Load(ctx context.Context, archive string) error
}

// ServiceStarter starts the services of a compose descriptor.
type ServiceStarter interface {
	Up(ctx context.Context, dir, composeFile string) error
}

// Options select what one run does.
type Options struct {
	Dir         string
	ComposeFile string
	DataDirs    []string
	// Cleanup offers to delete the archives once everything loaded.
	Cleanup bool
}

// Failure records one archive that did not load.
type Failure struct {
	Archive string
	Err     error
}

// Result counts loaded and failed archives.
type Result struct {
	Loaded          []string
	Failed          []Failure
	ServicesStarted bool
	Removed         bool
}

// Loader loads archives and starts services.
type Loader struct {
	Engine  ArchiveLoader
	Compose ServiceStarter
	Confirm ui.Confirmer
	Out     io.Writer
}

// Run loads every archive in opts.Dir. Each archive is attempted regardless
// of earlier failures; when any fails, ErrLoadFailed is returned with the
// result and neither services nor cleanup are offered.
func (l *Loader) Run(ctx context.Context, opts Options) (*Result, error) {
	archives, err := FindArchives(opts.Dir)
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoArchives, opts.Dir)
	}

	p := ui.NewPrinter(l.out(), l.out())
	p.Title("Loading %d archive(s) from %s", len(archives), opts.Dir)

	res := &Result{}
	for _, a := range archives {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p.Step(ui.IconPackage, "%s", filepath.Base(a))
		if err := l.Engine.Load(ctx, a); err != nil {
			res.Failed = append(res.Failed, Failure{Archive: a, Err: err})
			p.Error("%s: %v", filepath.Base(a), err)
			continue
		}
		res.Loaded = append(res.Loaded, a)
	}

	fmt.Fprintf(l.out(), "\n成功: %d\n失败: %d\n", len(res.Loaded), len(res.Failed))
	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d", ErrLoadFailed, len(res.Failed), len(archives))
	}

	if opts.ComposeFile != "" {
		if err := l.startServices(ctx, p, opts, res); err != nil {
			return res, err
		}
	}

	if opts.Cleanup {
		if err := l.cleanup(p, archives, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (l *Loader) startServices(ctx context.Context, p *ui.Printer, opts Options, res *Result) error {
	composePath := filepath.Join(opts.Dir, opts.ComposeFile)
	if _, err := os.Stat(composePath); err != nil {
		return nil
	}

	for _, d := range opts.DataDirs {
		if err := os.MkdirAll(filepath.Join(opts.Dir, d), 0o755); err != nil {
			return fmt.Errorf("create data directory %s: %w", d, err)
		}
	}

	ok, err := l.Confirm.Confirm("Start the services now")
	if err != nil {
		return err
	}
	manual := fmt.Sprintf("cd %s && docker compose -f %s up -d", opts.Dir, opts.ComposeFile)
	if !ok {
		p.Info("Start them later with:")
		p.Hint("%s", manual)
		return nil
	}

	if err := l.Compose.Up(ctx, opts.Dir, opts.ComposeFile); err != nil {
		p.Warn("Could not start services: %v", err)
		p.Hint("%s", manual)
		return nil
	}
	res.ServicesStarted = true
	p.Success("Services started")
	return nil
}

func (l *Loader) cleanup(p *ui.Printer, archives []string, res *Result) error {
	ok, err := l.Confirm.Confirm(fmt.Sprintf("Delete the %d loaded archive(s)", len(archives)))
	if err != nil || !ok {
		return err
	}
	for _, a := range archives {
		if err := os.Remove(a); err != nil {
			return fmt.Errorf("remove %s: %w", a, err)
		}
	}
	res.Removed = true
	p.Success("Removed %d archive(s)", len(archives))
	return nil
}

func (l *Loader) out() io.Writer {
	if l.Out == nil {
		return io.Discard
	}
	return l.Out
}

// FindArchives returns the image archives directly inside dir, sorted.
func FindArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var archives []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), config.ArchiveExt) {
			archives = append(archives, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(archives)
	return archives, nil
}
