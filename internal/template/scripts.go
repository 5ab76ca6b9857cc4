package template

import "fmt"

// ScriptData parameterizes the upload and load scripts.
type ScriptData struct {
	GeneratedAt string
	ImageRef    string
	// Engine is the default engine binary; IMGSHIP_ENGINE overrides it at run time.
	Engine     string
	ArchiveExt string
	// ComposeFile is the compose descriptor name inside the package, or empty.
	ComposeFile string
	// DataDirs are created next to the compose file before services start.
	DataDirs     []string
	ManifestName string
	LoadScript   string
	// Files are the package entries transferred by the upload script.
	Files []string
}

// Scripts holds the rendered script bodies.
type Scripts struct {
	Upload string
	Load   string
}

// RenderScripts renders both scripts.
func (e *Engine) RenderScripts(data ScriptData) (*Scripts, error) {
	if data.Engine == "" || data.ArchiveExt == "" || data.LoadScript == "" {
		return nil, fmt.Errorf("script data is incomplete: engine, archive extension and load script name are required")
	}

	upload, err := e.RenderTemplate(UploadScript, data)
	if err != nil {
		return nil, err
	}
	load, err := e.RenderTemplate(LoadScript, data)
	if err != nil {
		return nil, err
	}
	return &Scripts{Upload: upload, Load: load}, nil
}
