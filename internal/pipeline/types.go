package pipeline

import (
	"time"

	"github.com/dosanma1/imgship/internal/engine"
)

// Environment is the outcome of the environment check.
type Environment struct {
	EngineVersion string
	Strategy      engine.Strategy
}

// BuildResult describes a completed image build.
type BuildResult struct {
	Ref      string
	ImageID  string
	Platform string
	Duration time.Duration
}

// Verification records the compared architectures of a built image.
type Verification struct {
	Ref      string
	Expected string
	Actual   string
}

// Artifact is the exported image archive.
type Artifact struct {
	Path     string
	Size     int64
	ImageRef string
	Duration time.Duration
}

// Package lists what was placed next to the archive.
type Package struct {
	// Copied holds the names of copied files inside the output directory.
	Copied       []string
	Warnings     []string
	ManifestPath string
	// DataDirs are the directories the load script prepares before
	// starting services.
	DataDirs []string
}

// ScriptSet holds the paths of the generated scripts.
type ScriptSet struct {
	Upload string
	Load   string
}

// Report summarizes one pipeline run.
type Report struct {
	Environment  *Environment
	Build        *BuildResult
	Verification *Verification
	Artifact     *Artifact
	Package      *Package
	Scripts      *ScriptSet
	Duration     time.Duration
}

// Warnings returns the non-fatal warnings collected during the run.
func (r *Report) Warnings() []string {
	if r.Package == nil {
		return nil
	}
	return r.Package.Warnings
}
