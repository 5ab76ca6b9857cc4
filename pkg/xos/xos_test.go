package xos

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.sh")
	if err := WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(src, []byte("services: {}\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.yml")
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "services: {}\n" {
		t.Errorf("content = %q", got)
	}
	info, _ := os.Stat(dst)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if err := CopyFile(dir, filepath.Join(dir, "x")); err == nil {
		t.Error("expected error copying a directory")
	}
}

func TestPendingFileCleanup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.tar")

	p, err := NewPendingFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Write([]byte("partial")); err != nil {
		t.Fatal(err)
	}
	p.Cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("target exists after cleanup")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestPendingFileCloseAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.tar")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewPendingFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Cleanup()
	if _, err := p.Write([]byte("new")); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "old" {
		t.Errorf("target replaced before close: %q", got)
	}
	if err := p.CloseAtomically(); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, n := range map[string]int{"a": 10, "sub/b": 5} {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, n), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := DirSize(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != 15 {
		t.Errorf("DirSize() = %d, want 15", got)
	}
}
