package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/pipeline"
	"github.com/dosanma1/imgship/internal/template"
	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/internal/watch"
)

var (
	buildOverrides config.Overrides
	buildWatch     bool
	templatesDir   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build, verify, export and package the image",
	Long: `Build the image for the configured platform and package it for shipping.

Stages run in order and the first failure stops the run:
  1. check that the container engine is running and whether buildx exists
  2. build the image for the target platform
  3. verify the architecture recorded in the image
  4. export the image to an archive in the output directory
  5. copy the compose file, Dockerfile and extra files, write the manifest
  6. generate upload.sh and load.sh

Examples:
  imgship build
  imgship build --no-cache
  imgship build --tag 1.4.0 --platform linux/arm64
  imgship build --watch`,
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild when the build context changes")
	rootCmd.AddCommand(buildCmd)
}

// addBuildFlags registers the flags shared by the root command and build.
func addBuildFlags(c *cobra.Command) {
	c.Flags().BoolVar(&buildOverrides.NoCache, "no-cache", false, "Build without the layer cache")
	c.Flags().StringVar(&buildOverrides.Name, "name", "", "Override image.name")
	c.Flags().StringVarP(&buildOverrides.Tag, "tag", "t", "", "Override image.tag")
	c.Flags().StringVar(&buildOverrides.Platform, "platform", "", "Override image.platform (os/arch)")
	c.Flags().StringVarP(&buildOverrides.File, "file", "f", "", "Override build.file")
	c.Flags().StringVarP(&buildOverrides.Output, "output", "o", "", "Override output.dir")
	c.Flags().StringVar(&templatesDir, "templates", "", "Directory with upload.sh.tmpl/load.sh.tmpl overrides")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(buildOverrides)
	if err != nil {
		return err
	}

	p := newPipeline(cfg)
	if buildWatch {
		return watchBuild(cmd.Context(), cfg, p)
	}

	_, err = p.Run(cmd.Context())
	return err
}

func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	p := pipeline.New(cfg, newEngine(cfg, newRunner()),
		pipeline.WithLogger(logger),
		pipeline.WithPrinter(ui.Stdout()),
		pipeline.WithTemplates(template.NewEngine(templatesDir)),
	)
	p.Progress = os.Stderr
	return p
}

// watchBuild runs the pipeline once, then again after every change in the
// build context until interrupted. Failed runs are reported and watching
// continues.
func watchBuild(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	printer := ui.Stdout()

	wcfg := watch.DefaultConfig(cfg.Build.Context, outputBelow(cfg.Build.Context, cfg.Output.Dir))
	for _, f := range cfg.PackageFiles() {
		if outside(cfg.Build.Context, f) {
			wcfg.Extra = append(wcfg.Extra, f)
		}
	}
	w, err := watch.New(wcfg)
	if err != nil {
		return err
	}
	go w.Run(ctx)

	rebuild := func() {
		if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			printer.Error("%v", err)
		}
		printer.Hint("Watching %s for changes (Ctrl+C to stop)", cfg.Build.Context)
	}

	rebuild()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Changes():
			logger.Debug("change detected", "paths", change.Paths)
			printer.Step(ui.IconClock, "%d file(s) changed, rebuilding", len(change.Paths))
			rebuild()
		case err := <-w.Errors():
			logger.Warn("watch error", "error", err)
		}
	}
}

// outputBelow returns the output directory's name when it lies inside the
// build context, so the watcher ignores its own writes.
func outputBelow(dir, output string) string {
	if outside(dir, output) {
		return ""
	}
	return output
}

func outside(dir, path string) bool {
	absDir, err1 := filepath.Abs(dir)
	absPath, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return true
	}
	rel, err := filepath.Rel(absDir, absPath)
	return err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
