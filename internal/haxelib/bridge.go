// Package haxelib models the on-disk layout of a haxelib package repository.
//
// A Bridge is created once per build by the toolchain bootstrap and shared by
// pointer with every component that needs to locate packages. It never talks
// to the network; installs go through the haxelib tool itself.
package haxelib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// CurrentMarker is the file haxelib reads to pick the active version.
const CurrentMarker = ".current"

// ErrNotReady is returned when the repository root has not been created yet.
var ErrNotReady = errors.New("haxelib repository not initialized")

// Bridge maps package names and versions onto a haxelib repository root.
type Bridge struct {
	root string
}

// NewBridge returns a Bridge for the repository at root. The directory does
// not have to exist yet.
func NewBridge(root string) *Bridge {
	return &Bridge{root: filepath.Clean(root)}
}

// Root returns the repository directory.
func (b *Bridge) Root() string {
	if b == nil {
		return ""
	}
	return b.root
}

// Ready reports whether the repository root exists. A nil Bridge is never
// ready.
func (b *Bridge) Ready() bool {
	if b == nil || b.root == "" {
		return false
	}
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

// DirectoryFor returns <root>/<name>/<normalized version>, creating the
// package directory (but not the version directory) as a side effect.
func (b *Bridge) DirectoryFor(name, version string) (string, error) {
	if !b.Ready() {
		return "", ErrNotReady
	}
	if err := validName(name); err != nil {
		return "", err
	}
	normalized := NormalizeVersion(version)
	if normalized == "" {
		return "", fmt.Errorf("package %s: empty version %q", name, version)
	}
	pkgDir := filepath.Join(b.root, name)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", fmt.Errorf("create package dir %s: %w", pkgDir, err)
	}
	return filepath.Join(pkgDir, normalized), nil
}

// Lookup returns the version directory and whether it exists, without
// creating anything. It is safe to call before the repository exists.
func (b *Bridge) Lookup(name, version string) (string, bool) {
	normalized := NormalizeVersion(version)
	if !b.Ready() || validName(name) != nil || normalized == "" {
		return "", false
	}
	dir := filepath.Join(b.root, name, normalized)
	info, err := os.Stat(dir)
	return dir, err == nil && info.IsDir()
}

// EnsureCurrentMarker creates <root>/<name>/.current if it is absent and
// reports whether this call created it.
func (b *Bridge) EnsureCurrentMarker(name string) (bool, error) {
	if !b.Ready() {
		return false, ErrNotReady
	}
	if err := validName(name); err != nil {
		return false, err
	}
	pkgDir := filepath.Join(b.root, name)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return false, fmt.Errorf("create package dir %s: %w", pkgDir, err)
	}
	marker := filepath.Join(pkgDir, CurrentMarker)
	f, err := os.OpenFile(marker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create marker %s: %w", marker, err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("close marker %s: %w", marker, err)
	}
	return true, nil
}

// Current returns the version recorded in the package's marker. haxelib
// writes the active version into it; a marker created here is empty.
func (b *Bridge) Current(name string) (string, bool) {
	if !b.Ready() || validName(name) != nil {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(b.root, name, CurrentMarker))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Packages lists the package names present in the repository.
func (b *Bridge) Packages() ([]string, error) {
	if !b.Ready() {
		return nil, nil
	}
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Versions lists installed version directories for name in ascending order.
// Names are returned in their on-disk (comma) form.
func (b *Bridge) Versions(name string) ([]string, error) {
	if !b.Ready() || validName(name) != nil {
		return nil, nil
	}
	entries, err := os.ReadDir(filepath.Join(b.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read package %s: %w", name, err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// compareVersions orders comma-form versions semantically, falling back to
// lexical order for anything semver cannot parse.
func compareVersions(a, b string) int {
	sa := "v" + strings.ReplaceAll(a, ",", ".")
	sb := "v" + strings.ReplaceAll(b, ",", ".")
	if semver.IsValid(sa) && semver.IsValid(sb) {
		return semver.Compare(sa, sb)
	}
	return strings.Compare(a, b)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}
