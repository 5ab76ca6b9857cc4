package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/pkg/xos"
)

// Export saves the verified image into the archive path. The archive only
// appears once the engine has streamed it completely.
func (p *Pipeline) Export(ctx context.Context, v *Verification) (*Artifact, error) {
	if v == nil {
		return nil, ErrNotVerified
	}

	path := p.cfg.ArchivePath()
	p.printer.Step(ui.IconPackage, "Exporting %s to %s", v.Ref, path)

	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	pending, err := xos.NewPendingFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	defer pending.Cleanup()

	bar := p.progressBar()
	start := p.Now()
	if err := p.engine.Save(ctx, v.Ref, io.MultiWriter(pending, bar)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	_ = bar.Finish()

	if err := pending.Chmod(0o644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := pending.CloseAtomically(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	a := &Artifact{
		Path:     path,
		Size:     info.Size(),
		ImageRef: v.Ref,
		Duration: p.elapsed(start),
	}
	p.printer.Success("Exported %s in %s", humanSize(a.Size), a.Duration)
	p.logger.Debug("image exported", "path", a.Path, "bytes", a.Size, "duration", a.Duration)
	return a, nil
}

func (p *Pipeline) progressBar() *progressbar.ProgressBar {
	w := p.Progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("   saving"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
