package pipeline

import (
	"context"

	"github.com/dosanma1/imgship/internal/engine"
	"github.com/dosanma1/imgship/internal/ui"
)

// CheckEnvironment confirms the engine answers and picks the build strategy.
func (p *Pipeline) CheckEnvironment(ctx context.Context) (*Environment, error) {
	p.printer.Step(ui.IconSearch, "Checking environment")

	version, err := p.engine.Ping(ctx)
	if err != nil {
		return nil, err
	}
	p.printer.Info("%s %s is running", p.engine.Binary(), version)

	env := &Environment{EngineVersion: version, Strategy: engine.StrategyClassic}
	if p.engine.BuildxAvailable(ctx) {
		env.Strategy = engine.StrategyBuildx
		p.printer.Info("buildx available")
	} else {
		p.printer.Warn("buildx not available, using the classic builder")
	}

	p.logger.Debug("environment checked", "engine", p.engine.Binary(), "version", version, "strategy", env.Strategy)
	return env, nil
}
