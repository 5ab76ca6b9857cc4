package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/distribution/reference"

	"github.com/dosanma1/imgship/internal/compose"
	"github.com/dosanma1/imgship/internal/manifest"
	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/pkg/xos"
)

// Package copies the auxiliary files next to the archive and writes the
// manifest. Missing optional files become warnings.
func (p *Pipeline) Package(a *Artifact) (*Package, error) {
	p.printer.Step(ui.IconPackage, "Packaging deployment files")

	pkg := &Package{ManifestPath: p.cfg.ManifestPath()}
	reserved := p.reservedNames()
	taken := make(map[string]string)

	for _, src := range p.cfg.PackageFiles() {
		name := filepath.Base(src)
		if reserved[name] {
			pkg.warn(p, "skipping %s: %s is a generated file", src, name)
			continue
		}
		if prev, ok := taken[name]; ok {
			pkg.warn(p, "skipping %s: %s already copied from %s", src, name, prev)
			continue
		}

		err := xos.CopyFile(src, filepath.Join(p.cfg.Output.Dir, name))
		if errors.Is(err, os.ErrNotExist) {
			pkg.warn(p, "%s not found, not packaged", src)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: copy %s: %w", ErrPackage, src, err)
		}
		taken[name] = src
		pkg.Copied = append(pkg.Copied, name)
		p.printer.Info("%s", name)
	}

	pkg.DataDirs = p.dataDirs(pkg)

	m := &manifest.Manifest{
		GeneratedAt: p.Now(),
		Records: []manifest.Record{{
			Name:     filepath.Base(a.Path),
			Size:     a.Size,
			ImageRef: a.ImageRef,
		}},
	}
	if err := m.Write(pkg.ManifestPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}

	p.printer.Success("Manifest written to %s", pkg.ManifestPath)
	return pkg, nil
}

func (pkg *Package) warn(p *Pipeline, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pkg.Warnings = append(pkg.Warnings, msg)
	p.printer.Warn("%s", msg)
	p.logger.Warn(msg)
}

// reservedNames are output entries produced by the pipeline itself.
func (p *Pipeline) reservedNames() map[string]bool {
	return map[string]bool{
		p.cfg.ArchiveName():   true,
		p.cfg.Output.Manifest: true,
		UploadScriptName:      true,
		LoadScriptName:        true,
	}
}

// dataDirs merges the configured data directories with the bind-mount
// sources of the packaged compose descriptor.
func (p *Pipeline) dataDirs(pkg *Package) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if strings.HasPrefix(d, "~") || strings.HasPrefix(d, "$") {
			pkg.warn(p, "skipping data dir %s: only plain paths are created", d)
			return
		}
		d = filepath.ToSlash(filepath.Clean(d))
		if d != "." && !filepath.IsAbs(d) && !hasDotDot(d) {
			d = "./" + d
		}
		if d == "." || seen[d] {
			return
		}
		seen[d] = true
		dirs = append(dirs, d)
	}

	for _, d := range p.cfg.Deploy.DataDirs {
		add(d)
	}

	composeFile := p.composeInOutput(pkg)
	if composeFile != "" {
		f, err := compose.Load(composeFile)
		if err != nil {
			pkg.warn(p, "cannot read %s: %v", composeFile, err)
		} else {
			p.printer.Info("services: %s", strings.Join(f.ServiceNames(), ", "))
			if !slices.ContainsFunc(f.Images(), func(img string) bool { return sameImage(img, p.cfg.ImageRef()) }) {
				pkg.warn(p, "%s does not reference %s", filepath.Base(composeFile), p.cfg.ImageRef())
			}
			for _, d := range f.BindSources() {
				add(d)
			}
		}
	}

	sort.Strings(dirs)
	return dirs
}

// composeInOutput returns the path of the copied compose descriptor, or "".
func (p *Pipeline) composeInOutput(pkg *Package) string {
	name := p.composeName(pkg)
	if name == "" {
		return ""
	}
	return filepath.Join(p.cfg.Output.Dir, name)
}

// composeName returns the packaged name of the compose descriptor, or "".
func (p *Pipeline) composeName(pkg *Package) string {
	if p.cfg.Package.ComposeFile == "" {
		return ""
	}
	name := filepath.Base(p.cfg.Package.ComposeFile)
	for _, c := range pkg.Copied {
		if c == name {
			return name
		}
	}
	return ""
}

// sameImage reports whether a and b name the same image once defaults
// (docker.io/library, :latest) are filled in.
func sameImage(a, b string) bool {
	na, err := reference.ParseNormalizedNamed(a)
	if err != nil {
		return a == b
	}
	nb, err := reference.ParseNormalizedNamed(b)
	if err != nil {
		return a == b
	}
	return reference.TagNameOnly(na).String() == reference.TagNameOnly(nb).String()
}

func hasDotDot(p string) bool {
	return p == ".." || len(p) > 2 && p[:3] == "../"
}
