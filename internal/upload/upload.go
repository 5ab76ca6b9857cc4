// Package upload transfers a shipped package to a remote host over ssh,
// preferring rsync and falling back to scp.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/executil"
)

var (
	ErrUsage   = errors.New("destination must be user@host:/remote/path/")
	ErrNoFiles = errors.New("nothing to upload")
)

// Destination is a parsed user@host:path argument.
type Destination struct {
	Host string
	Path string
}

// String renders the destination in rsync/scp syntax.
func (d Destination) String() string {
	return d.Host + ":" + d.Path
}

// ParseDestination splits arg on its first colon. The host part cannot
// contain a colon; an empty path means the remote home directory.
func ParseDestination(arg string) (Destination, error) {
	host, path, ok := strings.Cut(arg, ":")
	if !ok || host == "" {
		return Destination{}, ErrUsage
	}
	if path == "" {
		path = "."
	}
	return Destination{Host: host, Path: path}, nil
}

// Uploader plans and runs the transfer commands.
type Uploader struct {
	Runner executil.Runner
	// LookPath reports whether a tool is installed. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	Stdout   io.Writer
	Stderr   io.Writer
}

// Plan returns the commands Upload runs: the remote mkdir, then one rsync or
// scp transfer of every file.
func (u *Uploader) Plan(dest Destination, files []string) []executil.Command {
	target := dest.Host + ":" + strings.TrimSuffix(dest.Path, "/") + "/"

	transfer := executil.Command{Name: "scp", Args: append([]string{}, files...)}
	if u.has("rsync") {
		transfer = executil.Command{
			Name: "rsync",
			Args: append([]string{"-avz", "--checksum", "--progress"}, files...),
		}
	}
	transfer.Args = append(transfer.Args, target)

	return []executil.Command{
		{Name: "ssh", Args: []string{dest.Host, "mkdir", "-p", dest.Path}},
		transfer,
	}
}

// Upload creates the remote directory and transfers files into it.
func (u *Uploader) Upload(ctx context.Context, dest Destination, files []string) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for _, cmd := range u.Plan(dest, files) {
		cmd.Stdout = u.Stdout
		cmd.Stderr = u.Stderr
		if err := u.Runner.Run(ctx, cmd); err != nil {
			return fmt.Errorf("upload to %s: %w", dest, err)
		}
	}
	return nil
}

func (u *Uploader) has(tool string) bool {
	lookPath := u.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(tool)
	return err == nil
}

// Files lists the package entries of dir that exist: every archive, the
// manifest, the copied configuration files and the load script.
func Files(dir string, cfg *config.Config, loadScript string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	wanted := map[string]bool{cfg.Output.Manifest: true, loadScript: true}
	for _, f := range cfg.PackageFiles() {
		wanted[filepath.Base(f)] = true
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(name, config.ArchiveExt) || wanted[name] {
			files = append(files, filepath.Join(dir, name))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	return files, nil
}
