package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"haxeboot/internal/artifact"
	"haxeboot/internal/repository"
)

// FileName is the project configuration file looked up in the project root.
const FileName = "haxeboot.yaml"

// Config captures the toolchain and dependency declarations for a project.
type Config struct {
	Version int `yaml:"version"`

	// Home overrides the toolchain home. Empty means the per-user default.
	Home string `yaml:"home,omitempty"`
	// OutputDir holds the haxelib repository and build output.
	OutputDir string `yaml:"output_dir"`
	// LocalRepository overrides the local artifact repository location.
	LocalRepository string `yaml:"local_repository,omitempty"`
	// SearchPath seeds the executable search path handed to every tool.
	SearchPath []string `yaml:"search_path"`

	Tools           []Coordinate        `yaml:"tools"`
	Dependencies    []Coordinate        `yaml:"dependencies"`
	DependencyFiles []string            `yaml:"dependency_files,omitempty"`
	Repositories    []repository.Remote `yaml:"repositories"`
}

// Coordinate is an artifact declaration. It accepts either the
// group:name:version[:type[:classifier]] shorthand or a mapping.
type Coordinate struct {
	artifact.Identity
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Coordinate) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		id, err := artifact.Parse(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		c.Identity = id
		return nil
	case yaml.MappingNode:
		var id artifact.Identity
		if err := node.Decode(&id); err != nil {
			return err
		}
		if err := id.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		c.Identity = id
		return nil
	default:
		return fmt.Errorf("line %d: artifact must be a string or a mapping", node.Line)
	}
}

// MarshalYAML renders the coordinate in its shorthand form.
func (c Coordinate) MarshalYAML() (interface{}, error) {
	parts := c.Group + ":" + c.Name + ":" + c.Version
	if c.Type != "" || c.Classifier != "" {
		parts += ":" + c.Type
	}
	if c.Classifier != "" {
		parts += ":" + c.Classifier
	}
	return parts, nil
}

// Identities unwraps a coordinate list.
func Identities(coords []Coordinate) []artifact.Identity {
	out := make([]artifact.Identity, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.Identity)
	}
	return out
}

// MavenCentral is the default remote repository.
func MavenCentral() repository.Remote {
	return repository.Remote{
		ID:       "central",
		URL:      "https://repo.maven.apache.org/maven2",
		Layout:   repository.LayoutDefault,
		Releases: true,
	}
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version:    1,
		OutputDir:  "target",
		SearchPath: defaultSearchPath(runtime.GOOS),
		Tools: []Coordinate{
			{Identity: artifact.Identity{Group: "org.haxe.compiler", Name: "haxe-compiler", Version: "3.4.7"}},
			{Identity: artifact.Identity{Group: "org.nekovm", Name: "nekovm", Version: "2.2.0"}},
		},
		Repositories: []repository.Remote{MavenCentral()},
	}
}

func defaultSearchPath(goos string) []string {
	if goos == "windows" {
		return nil
	}
	return []string{"/usr/local/bin", "/usr/bin", "/bin"}
}

// Load reads the configuration at path. A missing file yields the defaults.
// Relative dependency files are resolved against projectRoot.
func Load(path, projectRoot string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.loadDependencyFiles(projectRoot); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults populates zero-value fields with defaults.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.SearchPath == nil {
		c.SearchPath = defaults.SearchPath
	}
	if len(c.Repositories) == 0 {
		c.Repositories = defaults.Repositories
	}
	for i := range c.Repositories {
		if c.Repositories[i].Layout == "" {
			c.Repositories[i].Layout = repository.LayoutDefault
		}
	}
}

// Marshal renders the configuration back to YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
