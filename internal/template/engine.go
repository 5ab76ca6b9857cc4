// Package template renders the shell scripts shipped with an image package.
//
// Scripts are versioned template files embedded in the binary. A directory
// of same-named files can override them, which keeps site-specific tweaks out
// of the build pipeline.
package template

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dosanma1/imgship/internal/executil"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Names of the embedded script templates.
const (
	UploadScript = "upload.sh.tmpl"
	LoadScript   = "load.sh.tmpl"
)

// Engine provides template rendering capabilities.
type Engine struct {
	funcMap     template.FuncMap
	overrideDir string
}

// NewEngine creates an engine rendering the embedded templates. When
// overrideDir is not empty, templates found there take precedence.
func NewEngine(overrideDir string) *Engine {
	return &Engine{
		funcMap: template.FuncMap{
			"shquote": executil.ShellQuote,
			"join":    strings.Join,
		},
		overrideDir: overrideDir,
	}
}

// Render renders a template string with the given data.
func (e *Engine) Render(name, templateStr string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// RenderTemplate renders the named script template with the given data.
func (e *Engine) RenderTemplate(name string, data any) (string, error) {
	content, err := e.source(name)
	if err != nil {
		return "", err
	}
	return e.Render(name, string(content), data)
}

// source returns the override file when present, else the embedded one.
func (e *Engine) source(name string) ([]byte, error) {
	if e.overrideDir != "" {
		content, err := os.ReadFile(filepath.Join(e.overrideDir, name))
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read template override %s: %w", name, err)
		}
	}

	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded template %s: %w", name, err)
	}
	return content, nil
}
