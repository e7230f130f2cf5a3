package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"haxeboot/internal/config"
)

// HomeEnv overrides the per-user toolchain home.
const HomeEnv = "HAXEBOOT_HOME"

// ProjectPaths captures canonical locations for a haxeboot project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	MetaDir    string
	LogsDir    string
	OutputDir  string
	// Home is where tool SDKs are unpacked, shared across projects.
	Home string
	// LocalRepo is the local artifact repository.
	LocalRepo string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	home, err := defaultHome()
	if err != nil {
		return ProjectPaths{}, err
	}
	return newProjectPaths(root, home), nil
}

func newProjectPaths(root, home string) ProjectPaths {
	metaDir := filepath.Join(root, ".haxeboot")
	return ProjectPaths{
		Root:       root,
		ConfigFile: filepath.Join(root, config.FileName),
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
		OutputDir:  filepath.Join(root, "target"),
		Home:       home,
		LocalRepo:  filepath.Join(home, "repository"),
	}
}

// defaultHome determines the per-user toolchain directory.
func defaultHome() (string, error) {
	if override := strings.TrimSpace(os.Getenv(HomeEnv)); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", HomeEnv, err)
		}
		return abs, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return homeFor(runtime.GOOS, home, os.Getenv("LOCALAPPDATA")), nil
}

func homeFor(goos, userHome, localAppData string) string {
	switch goos {
	case "darwin":
		return filepath.Join(userHome, "Library", "Application Support", "Haxeboot")
	case "windows":
		if localAppData != "" {
			return filepath.Join(localAppData, "Haxeboot")
		}
		return filepath.Join(userHome, "AppData", "Local", "Haxeboot")
	default:
		return filepath.Join(userHome, ".local", "share", "haxeboot")
	}
}

// ApplyConfig overrides the default locations with those set in cfg.
// Relative values are taken from the project root.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	if out := strings.TrimSpace(cfg.OutputDir); out != "" {
		pp.OutputDir = resolveProjectPath(pp.Root, out)
	}
	if home := strings.TrimSpace(cfg.Home); home != "" {
		pp.Home = resolveProjectPath(pp.Root, home)
		pp.LocalRepo = filepath.Join(pp.Home, "repository")
	}
	if repo := strings.TrimSpace(cfg.LocalRepository); repo != "" {
		pp.LocalRepo = resolveProjectPath(pp.Root, repo)
	}
	return pp
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the hidden .haxeboot metadata directory and its logs.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
