package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	e := NewEngine("")

	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{name: "plain", tmpl: "hello {{.}}", data: "world", want: "hello world"},
		{name: "shquote", tmpl: "{{shquote .}}", data: "my file.tar", want: "'my file.tar'"},
		{name: "join", tmpl: `{{join . ","}}`, data: []string{"a", "b"}, want: "a,b"},
		{name: "parse error", tmpl: "{{.Missing", data: nil, wantErr: true},
		{name: "missing key", tmpl: "{{.nope}}", data: map[string]string{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.name, tt.tmpl, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Render() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LoadScript), []byte("custom {{.Engine}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(dir)
	got, err := e.RenderTemplate(LoadScript, sampleData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "custom docker\n" {
		t.Errorf("override not used: %q", got)
	}

	// Templates absent from the override directory fall back to the embedded ones.
	got, err = e.RenderTemplate(UploadScript, sampleData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "#!/usr/bin/env bash") {
		t.Errorf("embedded fallback not used: %q", got[:40])
	}
}

func TestRenderTemplateUnknown(t *testing.T) {
	if _, err := NewEngine("").RenderTemplate("nope.tmpl", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
