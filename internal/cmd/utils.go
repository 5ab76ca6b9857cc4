package cmd

import (
	"os"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/engine"
	"github.com/dosanma1/imgship/internal/executil"
	"github.com/dosanma1/imgship/internal/ui"
)

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Apply(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "image", cfg.ImageRef(), "platform", cfg.Image.Platform, "output", cfg.Output.Dir)
	return cfg, nil
}

func newRunner() executil.Runner {
	return executil.NewExecRunner(logger)
}

// newEngine returns the engine named in the configuration, streaming its
// build and load output to the terminal.
func newEngine(cfg *config.Config, runner executil.Runner) *engine.CLI {
	eng := engine.New(cfg.Deploy.Engine, runner)
	eng.Stdout = os.Stdout
	eng.Stderr = os.Stderr
	return eng
}

// newConfirmer prompts on the terminal unless answers were given up front.
func newConfirmer(yes, noInput bool) ui.Confirmer {
	switch {
	case yes:
		return ui.StaticConfirmer(true)
	case noInput:
		return ui.StaticConfirmer(false)
	default:
		return ui.PromptConfirmer{}
	}
}
