//go:build !windows

// Package xos writes package artifacts atomically so an interrupted run never
// leaves a truncated archive, manifest or script in the output directory.
package xos

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically using rename.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}

// CopyFile streams src into dst and renames it into place once fully written.
// The mode of dst follows src.
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
// CloseAtomically succeeds. Cleanup discards it and is safe to call after
// CloseAtomically.
type PendingFile struct {
	tempFile *renameio.PendingFile
	path     string
}

// NewPendingFile creates a pending file for the given target path.
func NewPendingFile(filename string) (*PendingFile, error) {
	t, err := renameio.TempFile("", filename)
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: t,
		path:     filename,
	}, nil
}

func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// Chmod changes the file mode of the pending file.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	return p.tempFile.Chmod(perm)
}

// CloseAtomically renames the temp file onto the target path.
func (p *PendingFile) CloseAtomically() error {
	return p.tempFile.CloseAtomicallyReplace()
}

// Cleanup discards the pending file without writing.
func (p *PendingFile) Cleanup() {
	_ = p.tempFile.Cleanup()
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
