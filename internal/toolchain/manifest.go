package toolchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"haxeboot/internal/artifact"
)

const manifestFileName = "manifest.json"

// ManifestEntry records one installed tool.
type ManifestEntry struct {
	Tool        string            `json:"tool"`
	Artifact    artifact.Identity `json:"artifact"`
	Dir         string            `json:"dir"`
	InstalledAt string            `json:"installed_at"`
}

// Manifest is the persisted record of installed tools, keyed by tool name.
type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}

// ManifestPath returns the manifest location for a toolchain home.
func ManifestPath(home string) string {
	return filepath.Join(home, manifestFileName)
}

// LoadManifest reads the manifest under home. A missing file yields an empty
// manifest.
func LoadManifest(home string) (Manifest, error) {
	contents, err := os.ReadFile(ManifestPath(home))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return manifest, nil
}

func saveManifest(home string, m Manifest) error {
	path := ManifestPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// recordInstall stores a ready tool in the manifest. The manifest is
// informational, so failures are only logged.
func (tc *Toolchain) recordInstall(tool string, id artifact.Identity, dir string) {
	tc.manifestMu.Lock()
	defer tc.manifestMu.Unlock()

	manifest, err := LoadManifest(tc.Home)
	if err != nil {
		tc.Logger.Warn("manifest unreadable, rewriting", "err", err)
		manifest = Manifest{Entries: map[string]ManifestEntry{}}
	}
	if prev, ok := manifest.Entries[tool]; ok && prev.Dir == dir && prev.Artifact == id {
		return
	}
	manifest.Entries[tool] = ManifestEntry{
		Tool:        tool,
		Artifact:    id,
		Dir:         dir,
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := saveManifest(tc.Home, manifest); err != nil {
		tc.Logger.Warn("could not save manifest", "err", err)
	}
}
