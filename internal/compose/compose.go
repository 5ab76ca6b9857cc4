// Package compose reads the parts of a compose descriptor that packaging and
// loading need, and locates the compose tool on the host.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dosanma1/imgship/internal/executil"
)

var ErrNoComposeTool = errors.New("neither 'docker compose' nor 'docker-compose' is available")

// File is a parsed compose descriptor.
type File struct {
	Services map[string]Service `yaml:"services"`
}

// Service is the subset of a compose service imgship inspects.
type Service struct {
	Image   string   `yaml:"image"`
	Volumes []Volume `yaml:"volumes"`
}

// Volume accepts both the short "src:dst[:mode]" and the long mapping syntax.
type Volume struct {
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Volume) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parts := strings.SplitN(node.Value, ":", 3)
		if len(parts) == 1 {
			v.Type = "volume"
			v.Target = parts[0]
			return nil
		}
		v.Source, v.Target = parts[0], parts[1]
		if isHostPath(v.Source) {
			v.Type = "bind"
		} else {
			v.Type = "volume"
		}
		return nil
	}

	type plain Volume
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = Volume(p)
	return nil
}

// Load parses the compose descriptor at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a compose descriptor.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}
	return &f, nil
}

// ServiceNames returns the service names in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Images returns the distinct images referenced by the services.
func (f *File) Images() []string {
	seen := make(map[string]bool)
	var images []string
	for _, name := range f.ServiceNames() {
		img := f.Services[name].Image
		if img != "" && !seen[img] {
			seen[img] = true
			images = append(images, img)
		}
	}
	return images
}

// BindSources returns the relative host directories bind-mounted by the
// services, cleaned and sorted. These have to exist next to the compose file
// before the services start. Sources with a file extension are single-file
// mounts and are left out.
func (f *File) BindSources() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, svc := range f.Services {
		for _, v := range svc.Volumes {
			if v.Type != "bind" || !isRelative(v.Source) {
				continue
			}
			clean := path.Clean(v.Source)
			if path.Ext(clean) != "" {
				continue
			}
			dir := "./" + clean
			if dir == "./." || seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Command returns the compose invocation available on this host: the engine
// plugin ("docker compose") when present, otherwise the standalone binary.
func Command(ctx context.Context, r executil.Runner, engine string) ([]string, error) {
	if executil.Quiet(ctx, r, engine, "compose", "version") == nil {
		return []string{engine, "compose"}, nil
	}
	if executil.Quiet(ctx, r, "docker-compose", "version") == nil {
		return []string{"docker-compose"}, nil
	}
	return nil, ErrNoComposeTool
}

func isHostPath(s string) bool {
	return strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~")
}

func isRelative(s string) bool {
	return s != "" && !strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "~") && !strings.HasPrefix(s, "$")
}
