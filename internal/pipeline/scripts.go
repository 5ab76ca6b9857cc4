package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/template"
	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/pkg/xos"
)

// GenerateScripts renders the upload and load scripts into the output
// directory with mode 0755.
func (p *Pipeline) GenerateScripts(pkg *Package) (*ScriptSet, error) {
	p.printer.Step(ui.IconTool, "Generating scripts")

	rendered, err := p.scripts.RenderScripts(p.ScriptData(pkg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScripts, err)
	}

	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScripts, err)
	}

	set := &ScriptSet{
		Upload: filepath.Join(p.cfg.Output.Dir, UploadScriptName),
		Load:   filepath.Join(p.cfg.Output.Dir, LoadScriptName),
	}
	for path, body := range map[string]string{set.Upload: rendered.Upload, set.Load: rendered.Load} {
		if err := xos.WriteFile(path, []byte(body), 0o755); err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", ErrScripts, path, err)
		}
	}

	p.printer.Success("Scripts written: %s, %s", UploadScriptName, LoadScriptName)
	return set, nil
}

// ScriptData derives the script parameters from the configuration and the
// packaged files.
func (p *Pipeline) ScriptData(pkg *Package) template.ScriptData {
	files := []string{p.cfg.ArchiveName(), p.cfg.Output.Manifest}
	files = append(files, pkg.Copied...)
	files = append(files, LoadScriptName)

	return template.ScriptData{
		GeneratedAt:  p.Now().UTC().Format(time.RFC3339),
		ImageRef:     p.cfg.ImageRef(),
		Engine:       p.cfg.Deploy.Engine,
		ArchiveExt:   config.ArchiveExt,
		ComposeFile:  p.composeName(pkg),
		DataDirs:     pkg.DataDirs,
		ManifestName: p.cfg.Output.Manifest,
		LoadScript:   LoadScriptName,
		Files:        files,
	}
}

// ExistingPackage describes the files already present in the output
// directory, for regenerating scripts without a build.
func (p *Pipeline) ExistingPackage() *Package {
	pkg := &Package{ManifestPath: p.cfg.ManifestPath()}
	reserved := p.reservedNames()
	for _, src := range p.cfg.PackageFiles() {
		name := filepath.Base(src)
		if reserved[name] {
			continue
		}
		reserved[name] = true
		if _, err := os.Stat(filepath.Join(p.cfg.Output.Dir, name)); err == nil {
			pkg.Copied = append(pkg.Copied, name)
		}
	}
	pkg.DataDirs = p.dataDirs(pkg)
	return pkg
}
