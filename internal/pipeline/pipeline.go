// Package pipeline runs the build, verify, export, package and script stages
// for one image. Stages run strictly in order and each one receives the
// result of the previous stage; the first failure ends the run.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/engine"
	"github.com/dosanma1/imgship/internal/logging"
	"github.com/dosanma1/imgship/internal/template"
	"github.com/dosanma1/imgship/internal/ui"
)

// Names of the generated scripts inside the output directory.
const (
	UploadScriptName = "upload.sh"
	LoadScriptName   = "load.sh"
)

// Engine is the subset of the container engine the pipeline drives.
type Engine interface {
	Binary() string
	Ping(ctx context.Context) (string, error)
	BuildxAvailable(ctx context.Context) bool
	Build(ctx context.Context, req engine.BuildRequest) error
	Architecture(ctx context.Context, ref string) (string, error)
	ImageID(ctx context.Context, ref string) (string, error)
	Save(ctx context.Context, ref string, w io.Writer) error
}

var _ Engine = (*engine.CLI)(nil)

// Pipeline holds the collaborators shared by all stages.
type Pipeline struct {
	cfg     *config.Config
	engine  Engine
	printer *ui.Printer
	logger  *slog.Logger
	scripts *template.Engine

	// Progress receives the export progress bar. Nil hides it.
	Progress io.Writer
	// Now is the clock used for durations and the manifest timestamp.
	Now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithPrinter sets the printer used for progress lines.
func WithPrinter(pr *ui.Printer) Option {
	return func(p *Pipeline) { p.printer = pr }
}

// WithTemplates sets the script template engine.
func WithTemplates(t *template.Engine) Option {
	return func(p *Pipeline) { p.scripts = t }
}

// New creates a pipeline for a validated configuration.
func New(cfg *config.Config, eng Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		engine:  eng,
		printer: ui.NewPrinter(io.Discard, io.Discard),
		logger:  logging.Discard(),
		scripts: template.NewEngine(""),
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every stage in order and returns the collected report. On
// failure the report holds the results of the stages that completed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := p.Now()
	report := &Report{}
	defer func() { report.Duration = p.Now().Sub(start) }()

	p.printer.Title("Building %s for %s", p.cfg.ImageRef(), p.cfg.Image.Platform)

	var err error
	if report.Environment, err = p.CheckEnvironment(ctx); err != nil {
		return report, err
	}
	if report.Build, err = p.Build(ctx, report.Environment); err != nil {
		return report, err
	}
	if report.Verification, err = p.Verify(ctx, report.Build); err != nil {
		return report, err
	}
	if report.Artifact, err = p.Export(ctx, report.Verification); err != nil {
		return report, err
	}
	if report.Package, err = p.Package(report.Artifact); err != nil {
		return report, err
	}
	if report.Scripts, err = p.GenerateScripts(report.Package); err != nil {
		return report, err
	}

	p.summarize(report)
	return report, nil
}

func (p *Pipeline) summarize(r *Report) {
	p.printer.Step(ui.IconSuccess, "Package ready in %s", p.cfg.Output.Dir)
	p.printer.Info("Archive:  %s (%s)", r.Artifact.Path, humanSize(r.Artifact.Size))
	p.printer.Info("Manifest: %s", r.Package.ManifestPath)
	p.printer.Info("Scripts:  %s, %s", r.Scripts.Upload, r.Scripts.Load)
	for _, w := range r.Warnings() {
		p.printer.Warn("%s", w)
	}
	p.printer.Hint("Ship it: ./%s/%s user@host:/path/", p.cfg.Output.Dir, UploadScriptName)
}

// elapsed returns the time since start on the pipeline clock.
func (p *Pipeline) elapsed(start time.Time) time.Duration {
	return p.Now().Sub(start).Round(time.Millisecond)
}
