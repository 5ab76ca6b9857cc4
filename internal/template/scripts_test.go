package template

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func sampleData() ScriptData {
	return ScriptData{
		GeneratedAt:  "2026-10-19T12:00:00Z",
		ImageRef:     "docker.io/library/app:latest",
		Engine:       "docker",
		ArchiveExt:   ".tar",
		ComposeFile:  "docker-compose.yml",
		DataDirs:     []string{"./data/db", "./data dir/logs"},
		ManifestName: "manifest.txt",
		LoadScript:   "load.sh",
		Files:        []string{"app-latest-amd64.tar", "docker-compose.yml", "Dockerfile", "manifest.txt", "load.sh"},
	}
}

func TestRenderScripts(t *testing.T) {
	s, err := NewEngine("").RenderScripts(sampleData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"用法: $0 user@host:/remote/path/",
		`REMOTE_HOST="${DEST%%:*}"`,
		"rsync -avz --checksum --progress",
		"app-latest-amd64.tar docker-compose.yml Dockerfile manifest.txt load.sh",
		"./load.sh",
	} {
		if !strings.Contains(s.Upload, want) {
			t.Errorf("upload script missing %q", want)
		}
	}

	for _, want := range []string{
		`ENGINE="${IMGSHIP_ENGINE:-docker}"`,
		"ARCHIVES=(*.tar)",
		"COMPOSE_FILE=docker-compose.yml",
		"mkdir -p ./data/db",
		"mkdir -p './data dir/logs'",
		"成功: $LOADED",
		"失败: $FAILED",
	} {
		if !strings.Contains(s.Load, want) {
			t.Errorf("load script missing %q", want)
		}
	}
}

func TestRenderScriptsWithoutCompose(t *testing.T) {
	data := sampleData()
	data.ComposeFile = ""
	data.DataDirs = nil

	s, err := NewEngine("").RenderScripts(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(s.Load, `COMPOSE_FILE=""`) {
		t.Error("expected empty compose file")
	}
	if strings.Contains(s.Load, "mkdir -p ./") {
		t.Error("no data directories expected")
	}
}

func TestRenderScriptsIncomplete(t *testing.T) {
	data := sampleData()
	data.Engine = ""
	if _, err := NewEngine("").RenderScripts(data); err == nil {
		t.Fatal("expected error for incomplete data")
	}
}

func requireBash(t *testing.T) string {
	t.Helper()
	bash, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}
	return bash
}

// fakeTool writes an executable that logs its arguments and fails for
// any argument listed in failOn.
func fakeTool(t *testing.T, dir, name, log string, failOn ...string) string {
	t.Helper()
	var cases strings.Builder
	for _, f := range failOn {
		fmt.Fprintf(&cases, "    %s) exit 1 ;;\n", f)
	}
	script := fmt.Sprintf("#!/bin/sh\necho \"%s $*\" >> %q\nfor a in \"$@\"; do\n  case \"$a\" in\n%s  esac\ndone\nexit 0\n", name, log, cases.String())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return string(b)
}

func TestLoadScriptCountsFailures(t *testing.T) {
	bash := requireBash(t)
	s, err := NewEngine("").RenderScripts(sampleData())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	tools := t.TempDir()
	log := filepath.Join(tools, "calls.log")
	engine := fakeTool(t, tools, "engine", log, "b.tar")
	script := writeScript(t, dir, "load.sh", s.Load)
	touch(t, dir, "a.tar", "b.tar", "docker-compose.yml")

	cmd := exec.Command(bash, script)
	cmd.Env = append(os.Environ(), "IMGSHIP_ENGINE="+engine)
	cmd.Stdin = strings.NewReader("yes\nyes\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err == nil {
		t.Fatalf("expected non-zero exit, output:\n%s", out.String())
	}
	got := out.String()
	if !strings.Contains(got, "成功: 1") || !strings.Contains(got, "失败: 1") {
		t.Errorf("unexpected summary:\n%s", got)
	}

	calls := readLog(t, log)
	if strings.Contains(calls, "compose") {
		t.Errorf("services must not start after a failed load: %s", calls)
	}
	for _, n := range []string{"a.tar", "b.tar"} {
		if _, err := os.Stat(filepath.Join(dir, n)); err != nil {
			t.Errorf("archive %s removed after failure", n)
		}
	}
}

func TestLoadScriptNoArchives(t *testing.T) {
	bash := requireBash(t)
	s, err := NewEngine("").RenderScripts(sampleData())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	tools := t.TempDir()
	log := filepath.Join(tools, "calls.log")
	engine := fakeTool(t, tools, "engine", log)
	script := writeScript(t, dir, "load.sh", s.Load)

	cmd := exec.Command(bash, script)
	cmd.Env = append(os.Environ(), "IMGSHIP_ENGINE="+engine)
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit, output:\n%s", out)
	}
	if calls := readLog(t, log); calls != "" {
		t.Errorf("engine invoked without archives: %s", calls)
	}
}

func TestLoadScriptStartsServices(t *testing.T) {
	bash := requireBash(t)
	s, err := NewEngine("").RenderScripts(sampleData())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	tools := t.TempDir()
	log := filepath.Join(tools, "calls.log")
	engine := fakeTool(t, tools, "engine", log)
	script := writeScript(t, dir, "load.sh", s.Load)
	touch(t, dir, "a.tar", "docker-compose.yml")

	cmd := exec.Command(bash, script)
	cmd.Env = append(os.Environ(), "IMGSHIP_ENGINE="+engine)
	cmd.Stdin = strings.NewReader("yes\nno\n")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}

	calls := readLog(t, log)
	if !strings.Contains(calls, "engine load -i a.tar") {
		t.Errorf("archive not loaded: %s", calls)
	}
	if !strings.Contains(calls, "engine compose -f docker-compose.yml up -d") {
		t.Errorf("services not started: %s", calls)
	}
	for _, d := range []string{"data/db", "data dir/logs"} {
		if fi, err := os.Stat(filepath.Join(dir, d)); err != nil || !fi.IsDir() {
			t.Errorf("data directory %s not created", d)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "a.tar")); err != nil {
		t.Error("archive removed although cleanup was declined")
	}
}

func TestUploadScriptUsage(t *testing.T) {
	bash := requireBash(t)
	s, err := NewEngine("").RenderScripts(sampleData())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	tools := t.TempDir()
	log := filepath.Join(tools, "calls.log")
	for _, tool := range []string{"ssh", "rsync", "scp"} {
		fakeTool(t, tools, tool, log)
	}
	script := writeScript(t, dir, "upload.sh", s.Upload)

	for _, args := range [][]string{nil, {"no-colon-here"}, {":/opt/app"}} {
		cmd := exec.Command(bash, append([]string{script}, args...)...)
		cmd.Env = append(os.Environ(), "PATH="+tools+string(os.PathListSeparator)+os.Getenv("PATH"))
		out, err := cmd.CombinedOutput()
		if err == nil {
			t.Errorf("args %v: expected non-zero exit", args)
		}
		if !strings.Contains(string(out), "用法:") {
			t.Errorf("args %v: usage not printed:\n%s", args, out)
		}
	}
	if calls := readLog(t, log); calls != "" {
		t.Errorf("transfer tools invoked: %s", calls)
	}
}

func TestUploadScriptTransfers(t *testing.T) {
	bash := requireBash(t)
	data := sampleData()
	data.Files = []string{"a.tar", "load.sh", "missing.txt"}
	s, err := NewEngine("").RenderScripts(data)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	tools := t.TempDir()
	log := filepath.Join(tools, "calls.log")
	for _, tool := range []string{"ssh", "rsync"} {
		fakeTool(t, tools, tool, log)
	}
	script := writeScript(t, dir, "upload.sh", s.Upload)
	writeScript(t, dir, "load.sh", s.Load)
	touch(t, dir, "a.tar")

	cmd := exec.Command(bash, script, "deploy@host:/opt/app")
	cmd.Env = append(os.Environ(), "PATH="+tools+string(os.PathListSeparator)+os.Getenv("PATH"))
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}

	calls := readLog(t, log)
	if !strings.Contains(calls, "ssh deploy@host mkdir -p /opt/app") {
		t.Errorf("remote directory not created: %s", calls)
	}
	if !strings.Contains(calls, "rsync -avz --checksum --progress a.tar load.sh deploy@host:/opt/app/") {
		t.Errorf("unexpected transfer: %s", calls)
	}
}
