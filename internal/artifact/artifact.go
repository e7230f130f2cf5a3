package artifact

import (
	"fmt"
	"runtime"
	"strings"
)

// Artifact types understood by the toolchain and the fetch interceptor.
const (
	TypeTgz        = "tgz"
	TypeTarGz      = "tar.gz"
	TypeZip        = "zip"
	TypeHaxelib    = "haxelib"
	TypePomHaxelib = "pom-haxelib"
	TypeJar        = "jar"
)

// ClassifierHaxelib marks a project dependency that ships as a packaged
// archive but installs into the haxelib repository.
const ClassifierHaxelib = "haxelib"

// Identity names an artifact by coordinates. Values are immutable; the With*
// helpers return modified copies.
type Identity struct {
	Group      string `json:"group" yaml:"group"`
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Classifier string `json:"classifier,omitempty" yaml:"classifier,omitempty"`
}

// Key returns the group:name pair used to look up declared tools.
func (id Identity) Key() string {
	return id.Group + ":" + id.Name
}

func (id Identity) String() string {
	parts := []string{id.Group, id.Name, id.Type}
	if id.Classifier != "" {
		parts = append(parts, id.Classifier)
	}
	parts = append(parts, id.Version)
	return strings.Join(parts, ":")
}

// WithType returns a copy of id with the artifact type replaced.
func (id Identity) WithType(t string) Identity {
	id.Type = t
	return id
}

// IsManaged reports whether the artifact is installed by the package manager
// rather than downloaded.
func (id Identity) IsManaged() bool {
	return id.Type == TypeHaxelib
}

// IsHybrid reports whether the artifact is downloaded as an archive and then
// installed into the package-manager repository.
func (id Identity) IsHybrid() bool {
	return id.Type == TypePomHaxelib || id.Classifier == ClassifierHaxelib
}

// FileName renders the repository file name: name-version[-classifier].ext.
func (id Identity) FileName() string {
	var b strings.Builder
	b.WriteString(id.Name)
	b.WriteByte('-')
	b.WriteString(id.Version)
	if id.Classifier != "" {
		b.WriteByte('-')
		b.WriteString(id.Classifier)
	}
	ext := id.Type
	if ext == "" {
		ext = TypeJar
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

// Validate checks that the coordinates are usable.
func (id Identity) Validate() error {
	switch {
	case strings.TrimSpace(id.Group) == "":
		return fmt.Errorf("artifact %q: group is required", id.String())
	case strings.TrimSpace(id.Name) == "":
		return fmt.Errorf("artifact %q: name is required", id.String())
	case strings.TrimSpace(id.Version) == "":
		return fmt.Errorf("artifact %s: version is required", id.Key())
	}
	return nil
}

// Parse reads group:name:version[:type[:classifier]] coordinates.
func Parse(coords string) (Identity, error) {
	parts := strings.Split(strings.TrimSpace(coords), ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Identity{}, fmt.Errorf("invalid coordinates %q: want group:name:version[:type[:classifier]]", coords)
	}
	id := Identity{Group: parts[0], Name: parts[1], Version: parts[2]}
	if len(parts) > 3 {
		id.Type = parts[3]
	}
	if len(parts) > 4 {
		id.Classifier = parts[4]
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Resolved is an artifact whose file has been located on disk.
type Resolved struct {
	Identity Identity
	File     string
	Local    bool
}

// PlatformClassifier returns the classifier used by native SDK distributions
// for the running operating system.
func PlatformClassifier() string {
	return classifierFor(runtime.GOOS)
}

func classifierFor(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// SDKPackaging returns the archive type native SDKs are published with on the
// running operating system.
func SDKPackaging() string {
	return packagingFor(runtime.GOOS)
}

func packagingFor(goos string) string {
	if goos == "windows" {
		return TypeZip
	}
	return TypeTgz
}
