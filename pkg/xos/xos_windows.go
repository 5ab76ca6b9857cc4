//go:build windows

// Package xos writes package artifacts atomically so an interrupted run never
// leaves a truncated archive, manifest or script in the output directory.
// On Windows a temp file in the target directory is renamed over the target.
package xos

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file via a temp file and rename.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	p, err := NewPendingFile(filename)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	if _, err := p.Write(data); err != nil {
		return err
	}
	if err := p.Chmod(perm); err != nil {
		return err
	}
	return p.CloseAtomically()
}

// CopyFile streams src into dst and renames it into place once fully written.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	p, err := NewPendingFile(dst)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	if _, err := io.Copy(p, in); err != nil {
		return err
	}
	if err := p.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	return p.CloseAtomically()
}

// PendingFile is a file that only appears at its target path once
// CloseAtomically succeeds.
type PendingFile struct {
	file *os.File
	path string
	perm os.FileMode
	done bool
}

// NewPendingFile creates a pending file for the given target path.
func NewPendingFile(filename string) (*PendingFile, error) {
	f, err := os.CreateTemp(filepath.Dir(filename), ".tmp-*")
	if err != nil {
		return nil, err
	}
	return &PendingFile{file: f, path: filename, perm: 0644}, nil
}

func (p *PendingFile) Write(data []byte) (int, error) {
	return p.file.Write(data)
}

// Chmod records the mode applied after the rename.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	p.perm = perm
	return nil
}

// CloseAtomically syncs, closes and renames the temp file onto the target.
func (p *PendingFile) CloseAtomically() error {
	if err := p.file.Sync(); err != nil {
		return err
	}
	if err := p.file.Close(); err != nil {
		return err
	}
	// Rename does not replace an existing file on every Windows filesystem.
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			return err
		}
	}
	if err := os.Rename(p.file.Name(), p.path); err != nil {
		return err
	}
	p.done = true
	return os.Chmod(p.path, p.perm)
}

// Cleanup discards the pending file without writing.
func (p *PendingFile) Cleanup() {
	if p.done {
		return
	}
	p.file.Close()
	os.Remove(p.file.Name())
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
