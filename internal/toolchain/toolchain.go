// Package toolchain installs the native Haxe toolchain and runs its tools.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"haxeboot/internal/archive"
	"haxeboot/internal/haxelib"
	"haxeboot/internal/runner"
)

// HaxelibRepoDir is the repository directory name under the toolchain home.
const HaxelibRepoDir = "_haxelib"

// Options configures a Toolchain.
type Options struct {
	// Home holds unpacked tool distributions and the haxelib repository.
	Home string
	// OutputDir is the build output directory and default working directory.
	OutputDir string
	// ProjectDir is the working directory for tools that run from the project.
	ProjectDir string
	// SearchPath seeds PATH before any tool is added.
	SearchPath []string
	Runner     runner.Runner
	Logger     *log.Logger
}

// Toolchain owns one Tool per capability and the state they share.
type Toolchain struct {
	Home       string
	OutputDir  string
	ProjectDir string
	Path       *SearchPath
	Bridge     *haxelib.Bridge
	Runner     runner.Runner
	Installer  *archive.Installer
	Logger     *log.Logger

	tools      map[string]*Tool
	manifestMu sync.Mutex
}

// New builds a Toolchain with every known tool in its unready state.
func New(opts Options) *Toolchain {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	r := opts.Runner
	if r == nil {
		r = runner.New(logger)
	}
	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = filepath.Dir(opts.OutputDir)
	}

	tc := &Toolchain{
		Home:       opts.Home,
		OutputDir:  opts.OutputDir,
		ProjectDir: projectDir,
		Path:       NewSearchPath(opts.SearchPath...),
		Bridge:     haxelib.NewBridge(filepath.Join(opts.Home, HaxelibRepoDir)),
		Runner:     r,
		Installer:  archive.NewInstaller(r, logger),
		Logger:     logger,
		tools:      make(map[string]*Tool, len(capabilities)),
	}
	for name, c := range capabilities {
		tc.tools[name] = &Tool{cap: c, tc: tc}
	}
	return tc
}

// Tool returns the named tool.
func (tc *Toolchain) Tool(name string) (*Tool, bool) {
	t, ok := tc.tools[name]
	return t, ok
}

// MustTool returns the named tool or an ErrUnknownTool error.
func (tc *Toolchain) MustTool(name string) (*Tool, error) {
	t, ok := tc.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// PackageManager returns the haxelib tool.
func (tc *Toolchain) PackageManager() *Tool {
	return tc.tools[Haxelib]
}

// Tools returns every tool ordered by name.
func (tc *Toolchain) Tools() []*Tool {
	out := make([]*Tool, 0, len(tc.tools))
	for _, name := range KnownTools() {
		out = append(out, tc.tools[name])
	}
	return out
}

// prepareDirs creates the home directory and the output directory. A plain
// file sitting at the output path is replaced by a directory.
func (tc *Toolchain) prepareDirs() error {
	if err := os.MkdirAll(tc.Home, 0o755); err != nil {
		return fmt.Errorf("create toolchain home: %w", err)
	}
	if info, err := os.Stat(tc.OutputDir); err == nil && !info.IsDir() {
		if err := os.Remove(tc.OutputDir); err != nil {
			return fmt.Errorf("replace output file: %w", err)
		}
	}
	if err := os.MkdirAll(tc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
