package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/pipeline"
	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/internal/upload"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUploadWithoutDestination(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "upload")
	if !errors.Is(err, upload.ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("Usage: imgship upload")) {
		t.Errorf("usage not printed: %q", out)
	}
}

func TestScriptsCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out := t.TempDir()
	t.Cleanup(func() { buildOverrides = config.Overrides{} })

	if _, err := execute(t, "scripts", "-o", out); err != nil {
		t.Fatalf("scripts: %v", err)
	}
	for _, name := range []string{pipeline.UploadScriptName, pipeline.LoadScriptName} {
		info, err := os.Stat(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("%s not generated: %v", name, err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("%s mode = %v, want 0755", name, info.Mode().Perm())
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "valid", content: "image:\n  name: api\n  tag: \"1.2\"\n  platform: linux/arm64\n"},
		{name: "unknown key", content: "image:\n  nmae: api\n", wantErr: true},
		{name: "bad platform", content: "image:\n  platform: amd64\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			if err := os.WriteFile(config.DefaultFileName, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := execute(t, "validate")
			if (err != nil) != tt.wantErr {
				t.Errorf("validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWithoutConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := execute(t, "validate"); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if _, err := execute(t, "validate", "--config", "missing.yaml"); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestCleanMissingOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := execute(t, "clean", "--yes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCleanRemovesOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.MkdirAll("dist", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("dist/app-latest-amd64.tar", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "clean", "--yes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat("dist"); !os.IsNotExist(err) {
		t.Error("output directory still exists")
	}
}

func TestNewConfirmer(t *testing.T) {
	tests := []struct {
		yes, noInput bool
		want         ui.Confirmer
	}{
		{yes: true, want: ui.StaticConfirmer(true)},
		{noInput: true, want: ui.StaticConfirmer(false)},
		{want: ui.PromptConfirmer{}},
	}
	for _, tt := range tests {
		if got := newConfirmer(tt.yes, tt.noInput); got != tt.want {
			t.Errorf("newConfirmer(%v, %v) = %#v, want %#v", tt.yes, tt.noInput, got, tt.want)
		}
	}
}

func TestOutside(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{".", "dist", false},
		{".", "./Dockerfile", false},
		{"app", "docker-compose.yml", true},
		{"app", "app/dist", false},
		{"app", "../other", true},
	}
	for _, tt := range tests {
		if got := outside(tt.dir, tt.path); got != tt.want {
			t.Errorf("outside(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
