package config

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/imgship.v1.schema.json
var schemaFS embed.FS

const schemaPath = "schemas/imgship.v1.schema.json"

// SchemaError is one schema violation found in a configuration document.
type SchemaError struct {
	Field       string
	Description string
}

func (e SchemaError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidateDocument checks a raw YAML configuration document against the
// embedded JSON schema. It returns the violations; an empty slice means the
// document is valid. Parse failures are returned as errors.
func ValidateDocument(data []byte) ([]SchemaError, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	schemaBytes, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load JSON schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var out []SchemaError
	for _, desc := range result.Errors() {
		out = append(out, SchemaError{Field: desc.Field(), Description: desc.Description()})
	}
	return out, nil
}
