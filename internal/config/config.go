// Package config loads and validates the imgship build configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/containerd/platforms"
	"github.com/distribution/reference"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = ".imgship.yaml"

// Defaults applied to missing fields.
const (
	DefaultImageName   = "app"
	DefaultTag         = "latest"
	DefaultPlatform    = "linux/amd64"
	DefaultBuildFile   = "Dockerfile"
	DefaultContext     = "."
	DefaultOutputDir   = "dist"
	DefaultManifest    = "manifest.txt"
	DefaultComposeFile = "docker-compose.yml"
	DefaultEngine      = "docker"

	// ArchiveExt is the extension of exported image archives. The load
	// script and the load command discover archives by it.
	ArchiveExt = ".tar"
)

var ErrInvalid = errors.New("invalid config")

// Config represents the .imgship.yaml configuration file.
type Config struct {
	Image   ImageConfig   `yaml:"image" json:"image"`
	Build   BuildConfig   `yaml:"build" json:"build"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Package PackageConfig `yaml:"package" json:"package"`
	Deploy  DeployConfig  `yaml:"deploy" json:"deploy"`
}

// ImageConfig names the image and pins its target platform.
type ImageConfig struct {
	Name     string `yaml:"name" json:"name"`
	Tag      string `yaml:"tag" json:"tag"`
	Platform string `yaml:"platform" json:"platform"`
}

// BuildConfig holds the engine build inputs.
type BuildConfig struct {
	File    string            `yaml:"file" json:"file"`
	Context string            `yaml:"context" json:"context"`
	NoCache bool              `yaml:"no_cache" json:"no_cache"`
	Args    map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// OutputConfig describes the output directory layout.
type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir"`
	// Archive defaults to <name>-<tag>-<arch>.tar when empty.
	Archive  string `yaml:"archive,omitempty" json:"archive,omitempty"`
	Manifest string `yaml:"manifest" json:"manifest"`
}

// PackageConfig lists the optional files copied next to the archive.
type PackageConfig struct {
	ComposeFile string   `yaml:"compose_file" json:"compose_file"`
	ExtraFiles  []string `yaml:"extra_files,omitempty" json:"extra_files,omitempty"`
}

// DeployConfig parameterizes the generated scripts.
type DeployConfig struct {
	Engine   string   `yaml:"engine" json:"engine"`
	DataDirs []string `yaml:"data_dirs,omitempty" json:"data_dirs,omitempty"`
}

// Overrides carries command-line values that take precedence over the file.
// Empty strings leave the file value untouched.
type Overrides struct {
	Name     string
	Tag      string
	Platform string
	File     string
	Output   string
	NoCache  bool
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads, defaults and validates the configuration at path. An empty
// path means DefaultFileName, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Apply merges command-line overrides into the configuration.
func (c *Config) Apply(o Overrides) {
	if o.Name != "" {
		c.Image.Name = o.Name
	}
	if o.Tag != "" {
		c.Image.Tag = o.Tag
	}
	if o.Platform != "" {
		c.Image.Platform = o.Platform
	}
	if o.File != "" {
		c.Build.File = o.File
	}
	if o.Output != "" {
		c.Output.Dir = o.Output
	}
	if o.NoCache {
		c.Build.NoCache = true
	}
}

// Validate checks that the configuration describes a buildable image.
func (c *Config) Validate() error {
	if _, err := reference.ParseNormalizedNamed(c.ImageRef()); err != nil {
		return fmt.Errorf("%w: image %q: %v", ErrInvalid, c.ImageRef(), err)
	}

	if strings.Count(c.Image.Platform, "/") < 1 {
		return fmt.Errorf("%w: platform %q must be os/arch", ErrInvalid, c.Image.Platform)
	}
	if _, err := platforms.Parse(c.Image.Platform); err != nil {
		return fmt.Errorf("%w: platform %q: %v", ErrInvalid, c.Image.Platform, err)
	}

	if strings.TrimSpace(c.Build.File) == "" {
		return fmt.Errorf("%w: build.file is required", ErrInvalid)
	}

	if !isPlainName(c.ArchiveName()) || !strings.HasSuffix(c.ArchiveName(), ArchiveExt) {
		return fmt.Errorf("%w: output.archive %q must be a file name ending in %s", ErrInvalid, c.ArchiveName(), ArchiveExt)
	}
	if !isPlainName(c.Output.Manifest) {
		return fmt.Errorf("%w: output.manifest %q must be a file name", ErrInvalid, c.Output.Manifest)
	}
	if c.Output.Manifest == c.ArchiveName() {
		return fmt.Errorf("%w: output.manifest and output.archive collide", ErrInvalid)
	}

	for key := range c.Build.Args {
		if key == "" || strings.ContainsAny(key, "= \t") {
			return fmt.Errorf("%w: build arg name %q", ErrInvalid, key)
		}
	}

	// The load script creates these with mkdir -p; the shell does not expand them.
	for _, d := range c.Deploy.DataDirs {
		if strings.TrimSpace(d) == "" || strings.HasPrefix(d, "~") || strings.HasPrefix(d, "$") {
			return fmt.Errorf("%w: data dir %q must be a plain relative or absolute path", ErrInvalid, d)
		}
	}

	return nil
}

// ImageRef returns the name:tag reference built and exported by the pipeline.
func (c *Config) ImageRef() string {
	return c.Image.Name + ":" + c.Image.Tag
}

// Architecture returns the normalized architecture component of the platform.
func (c *Config) Architecture() string {
	p, err := platforms.Parse(c.Image.Platform)
	if err != nil {
		return ""
	}
	return platforms.Normalize(p).Architecture
}

// ArchiveName returns the archive file name inside the output directory.
func (c *Config) ArchiveName() string {
	if c.Output.Archive != "" {
		return c.Output.Archive
	}
	base := c.Image.Name
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return fmt.Sprintf("%s-%s-%s%s", base, c.Image.Tag, c.Architecture(), ArchiveExt)
}

// ArchivePath returns the path of the exported archive.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.Output.Dir, c.ArchiveName())
}

// ManifestPath returns the path of the manifest file.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Manifest)
}

// BuildArgs returns the build args as KEY=VALUE pairs in key order.
func (c *Config) BuildArgs() []string {
	keys := make([]string, 0, len(c.Build.Args))
	for k := range c.Build.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Build.Args[k])
	}
	return out
}

// PackageFiles returns the optional files copied into the output directory:
// the compose descriptor, the build-file and any extra files, deduplicated.
func (c *Config) PackageFiles() []string {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		files = append(files, p)
	}

	add(c.Package.ComposeFile)
	add(c.Build.File)
	for _, f := range c.Package.ExtraFiles {
		add(f)
	}
	return files
}

// applyDefaults sets default values for missing fields.
func (c *Config) applyDefaults() {
	if c.Image.Name == "" {
		c.Image.Name = DefaultImageName
	}
	if c.Image.Tag == "" {
		c.Image.Tag = DefaultTag
	}
	if c.Image.Platform == "" {
		c.Image.Platform = DefaultPlatform
	}
	if c.Build.File == "" {
		c.Build.File = DefaultBuildFile
	}
	if c.Build.Context == "" {
		c.Build.Context = DefaultContext
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = DefaultManifest
	}
	if c.Package.ComposeFile == "" {
		c.Package.ComposeFile = DefaultComposeFile
	}
	if c.Deploy.Engine == "" {
		c.Deploy.Engine = DefaultEngine
	}
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
