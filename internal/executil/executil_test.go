package executil

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "docker", want: "docker"},
		{in: "linux/amd64", want: "linux/amd64"},
		{in: "", want: "''"},
		{in: "a b", want: "'a b'"},
		{in: "it's", want: `'it'\''s'`},
		{in: "{{.Architecture}}", want: "'{{.Architecture}}'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ShellQuote(tt.in); got != tt.want {
				t.Errorf("ShellQuote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Name: "docker", Args: []string{"image", "inspect", "--format", "{{.Architecture}}", "app:latest"}}
	want := "docker image inspect --format '{{.Architecture}}' app:latest"
	if got := cmd.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{limit: 5}
	tb.Write([]byte("abc"))
	tb.Write([]byte("defgh"))
	if got := tb.String(); got != "defgh" {
		t.Errorf("tail = %q, want %q", got, "defgh")
	}
}

func TestExecRunnerExitError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := NewExecRunner(nil)
	err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "boom") {
		t.Errorf("Stderr = %q, want it to contain boom", exitErr.Stderr)
	}
}

func TestOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := Output(context.Background(), NewExecRunner(nil), "sh", "-c", "echo '  amd64  '")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "amd64" {
		t.Errorf("Output = %q, want %q", out, "amd64")
	}
}
