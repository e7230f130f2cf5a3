package toolchain

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"haxeboot/internal/artifact"
	"haxeboot/internal/haxelib"
	"haxeboot/internal/runner"
)

// Tool is one external program of the toolchain. It starts unready and
// becomes ready once its distribution is unpacked or found installed.
type Tool struct {
	cap Capability
	tc  *Toolchain

	mu       sync.Mutex
	artifact artifact.Identity
	dir      string
	ready    bool
	managed  bool
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.cap.Name }

// Mandatory reports whether the bootstrap fails when this tool fails.
func (t *Tool) Mandatory() bool { return t.cap.Mandatory }

// Artifact returns the artifact the tool was initialized from.
func (t *Tool) Artifact() artifact.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.artifact
}

// Initialize installs the tool from a resolved artifact. Calling it on a
// ready tool does nothing.
func (t *Tool) Initialize(ctx context.Context, res artifact.Resolved) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return nil
	}
	t.artifact = res.Identity
	logger := t.tc.Logger.With("tool", t.cap.Name)

	switch {
	case res.Identity.IsManaged():
		t.managed = true
		dir, ok := t.tc.Bridge.Lookup(res.Identity.Name, res.Identity.Version)
		t.dir = dir
		if !ok {
			logger.Debug("package not installed yet", "artifact", res.Identity.String())
			return nil
		}
		t.ready = true
		t.markCurrent(ctx)
		return nil

	case t.cap.SharesWith != "":
		owner, ok := t.tc.Tool(t.cap.SharesWith)
		if !ok {
			return fmt.Errorf("%s: %w: %s", t.cap.Name, ErrUnknownTool, t.cap.SharesWith)
		}
		dir, err := owner.InstalledPath()
		if err != nil {
			return fmt.Errorf("%s: %w", t.cap.Name, err)
		}
		t.dir = dir
		t.ready = true
		t.tc.Path.Add(dir)
		t.tc.recordInstall(t.cap.Name, res.Identity, dir)
		return nil
	}

	dest, err := t.installDir(res.Identity)
	if err != nil {
		logger.Error("cannot determine install directory", "err", err)
		return fmt.Errorf("initialize %s: %w", t.cap.Name, err)
	}

	unlock, err := acquireInstallLock(ctx, t.tc.Home, t.cap.Name, logger)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", t.cap.Name, err)
	}
	err = t.tc.Installer.Unpack(ctx, res.File, dest)
	unlock()
	if err != nil {
		logger.Error("unpack failed", "artifact", res.Identity.String(), "err", err)
		return fmt.Errorf("initialize %s: %w", t.cap.Name, err)
	}

	t.dir = dest
	t.ready = true
	t.tc.Path.Add(dest)
	t.tc.recordInstall(t.cap.Name, res.Identity, dest)
	logger.Info("ready", "dir", dest)

	if t.cap.SetCurrent {
		t.markCurrent(ctx)
	}
	return nil
}

func (t *Tool) installDir(id artifact.Identity) (string, error) {
	if t.cap.Layout == LayoutPackage {
		return t.tc.Bridge.DirectoryFor(id.Name, id.Version)
	}
	return filepath.Join(t.tc.Home, id.Name+"-"+id.Version), nil
}

// markCurrent creates the package marker and, the first time only, asks
// haxelib to make this version current. Failures are logged, not returned.
func (t *Tool) markCurrent(ctx context.Context) {
	logger := t.tc.Logger.With("tool", t.cap.Name)
	created, err := t.tc.Bridge.EnsureCurrentMarker(t.artifact.Name)
	if err != nil {
		logger.Warn("cannot create current marker", "err", err)
		return
	}
	if !created {
		return
	}
	pm := t.tc.PackageManager()
	if pm == nil || pm == t {
		return
	}
	if err := pm.Run(ctx, "set", t.artifact.Name, haxelib.CleanVersion(t.artifact.Version)); err != nil {
		logger.Warn("unable to set current version", "version", t.artifact.Version, "err", err)
	}
}

// InstalledPath returns the install directory of a ready tool.
func (t *Tool) InstalledPath() (string, error) {
	if !t.IsReady() {
		return "", fmt.Errorf("%s: %w", t.cap.Name, ErrNotInstalled)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir, nil
}

// IsReady reports whether the tool can be run. Managed packages are checked
// against the repository again, since they may have been installed after
// Initialize ran.
func (t *Tool) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return true
	}
	if !t.managed {
		return false
	}
	dir, ok := t.tc.Bridge.Lookup(t.artifact.Name, t.artifact.Version)
	if ok {
		t.dir = dir
		t.ready = true
	}
	return t.ready
}

func (t *Tool) siblings(names ...string) (map[string]string, error) {
	dirs := make(map[string]string, len(names))
	for _, name := range names {
		if name == t.cap.Name {
			dir, err := t.InstalledPath()
			if err != nil {
				return nil, err
			}
			dirs[name] = dir
			continue
		}
		other, ok := t.tc.Tool(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		dir, err := other.InstalledPath()
		if err != nil {
			return nil, err
		}
		dirs[name] = dir
	}
	return dirs, nil
}

// Environment returns the complete child environment for the tool. It is
// not merged with the parent environment.
func (t *Tool) Environment() ([]string, error) {
	var env []string
	if t.cap.Env != nil {
		extra, err := t.cap.Env(t)
		if err != nil {
			return nil, err
		}
		env = append(env, extra...)
	}
	env = append(env,
		"PATH="+t.tc.Path.String(),
		"HOME="+t.tc.Home,
	)
	return env, nil
}

// Command returns the executable and full argument list for args.
func (t *Tool) Command(args ...string) (string, []string, error) {
	exe, prefix, err := t.cap.Command(t)
	if err != nil {
		return "", nil, err
	}
	full := make([]string, 0, len(prefix)+len(args))
	full = append(full, prefix...)
	full = append(full, args...)
	return exe, full, nil
}

func (t *Tool) options() (runner.Options, error) {
	env, err := t.Environment()
	if err != nil {
		return runner.Options{}, err
	}
	dir := t.tc.OutputDir
	if t.cap.ProjectDir {
		dir = t.tc.ProjectDir
	}
	return runner.Options{Dir: dir, Env: env, Tag: t.cap.Name}, nil
}

// Execute runs the tool and returns its exit code.
func (t *Tool) Execute(ctx context.Context, args ...string) (int, error) {
	exe, full, err := t.Command(args...)
	if err != nil {
		return -1, err
	}
	opts, err := t.options()
	if err != nil {
		return -1, err
	}
	return t.tc.Runner.Execute(ctx, exe, full, opts)
}

// Capture runs the tool and returns its stdout lines. A non-zero exit is
// reported as a ToolError along with whatever was printed.
func (t *Tool) Capture(ctx context.Context, args ...string) ([]string, error) {
	exe, full, err := t.Command(args...)
	if err != nil {
		return nil, err
	}
	opts, err := t.options()
	if err != nil {
		return nil, err
	}
	lines, code, err := t.tc.Runner.Capture(ctx, exe, full, opts)
	if err != nil {
		return lines, err
	}
	if code != 0 {
		return lines, &ToolError{Tool: t.cap.Name, Code: code}
	}
	return lines, nil
}

// Run executes the tool and turns a non-zero exit into a ToolError.
func (t *Tool) Run(ctx context.Context, args ...string) error {
	code, err := t.Execute(ctx, args...)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ToolError{Tool: t.cap.Name, Code: code}
	}
	return nil
}
