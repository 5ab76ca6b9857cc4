package pipeline

import (
	"context"

	"github.com/dosanma1/imgship/internal/engine"
	"github.com/dosanma1/imgship/internal/ui"
)

// Build builds the configured image for the target platform.
func (p *Pipeline) Build(ctx context.Context, env *Environment) (*BuildResult, error) {
	p.printer.Step(ui.IconTool, "Building %s", p.cfg.ImageRef())

	req := engine.BuildRequest{
		Ref:      p.cfg.ImageRef(),
		Platform: p.cfg.Image.Platform,
		File:     p.cfg.Build.File,
		Context:  p.cfg.Build.Context,
		NoCache:  p.cfg.Build.NoCache,
		Args:     p.cfg.BuildArgs(),
		Strategy: env.Strategy,
	}

	start := p.Now()
	if err := p.engine.Build(ctx, req); err != nil {
		return nil, err
	}

	result := &BuildResult{Ref: req.Ref, Platform: req.Platform, Duration: p.elapsed(start)}
	p.printer.Success("Built %s in %s", result.Ref, result.Duration)

	// The ID is informational; verification reports a missing image.
	if id, err := p.engine.ImageID(ctx, req.Ref); err == nil {
		result.ImageID = id
		p.printer.Info("image id %s", id)
	} else {
		p.logger.Warn("cannot read image id", "ref", req.Ref, "error", err)
	}

	p.logger.Debug("image built", "ref", result.Ref, "id", result.ImageID, "platform", result.Platform, "duration", result.Duration)
	return result, nil
}
