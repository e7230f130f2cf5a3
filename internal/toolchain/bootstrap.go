package toolchain

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"haxeboot/internal/artifact"
	"haxeboot/internal/haxelib"
	"haxeboot/internal/repository"
)

// Resolver finds artifacts. Not finding one is reported through the boolean;
// the error is reserved for repositories that could not be consulted.
type Resolver interface {
	ResolveLocal(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error)
	ResolveRemote(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error)
}

// Request is the input of one bootstrap pass.
type Request struct {
	// Tools are the declared tool artifacts, matched by group:name key.
	Tools []artifact.Identity
	// Project are the project dependencies to be filtered.
	Project []artifact.Identity
	// Repositories are the host's remote repositories.
	Repositories []repository.Remote
}

// Result is the outcome of a successful bootstrap.
type Result struct {
	Toolchain    *Toolchain
	Remaining    []artifact.Identity
	Repositories []repository.Remote
}

// Bootstrap prepares a Toolchain from declared tool artifacts.
type Bootstrap struct {
	Toolchain *Toolchain
	Resolver  Resolver
	Logger    *log.Logger
	// OnPhase, when set, is told as each bootstrap step begins.
	OnPhase func(phase string)
}

func (b *Bootstrap) phase(name string) {
	b.Logger.Debug("bootstrap phase", "phase", name)
	if b.OnPhase != nil {
		b.OnPhase(name)
	}
}

// NewBootstrap returns a Bootstrap for tc resolving through r.
func NewBootstrap(tc *Toolchain, r Resolver) *Bootstrap {
	return &Bootstrap{Toolchain: tc, Resolver: r, Logger: tc.Logger}
}

// Run performs a single bootstrap pass. It stops at the first unrecoverable
// error; optional tools that fail are left unready.
func (b *Bootstrap) Run(ctx context.Context, req Request) (Result, error) {
	tc := b.Toolchain
	if err := tc.prepareDirs(); err != nil {
		return Result{}, err
	}

	b.phase("resolving tools")
	resolved := map[string]artifact.Resolved{}
	for _, declared := range req.Tools {
		name, ok := ToolForKey(declared.Key())
		if !ok {
			continue
		}
		mandatory := capabilities[name].Mandatory
		res, found, err := b.resolveSDK(ctx, sdkArtifact(name, declared))
		if err != nil {
			if mandatory {
				return Result{}, fmt.Errorf("resolve %s: %w", declared.Key(), err)
			}
			b.Logger.Warn("cannot resolve optional tool", "artifact", declared.Key(), "err", err)
			continue
		}
		if found {
			resolved[declared.Key()] = res
		}
	}

	for _, key := range []string{NekoKey, HaxeKey} {
		if _, ok := resolved[key]; !ok {
			return Result{}, &MissingDependencyError{Key: key}
		}
	}

	b.phase("installing neko")
	if err := b.initialize(ctx, Neko, resolved[NekoKey]); err != nil {
		return Result{}, err
	}
	b.phase("installing haxe")
	if err := b.initialize(ctx, Haxe, resolved[HaxeKey]); err != nil {
		return Result{}, err
	}
	if err := b.initialize(ctx, Haxelib, resolved[HaxeKey]); err != nil {
		return Result{}, err
	}
	b.phase("preparing haxelib repository")
	if err := b.setupRepository(ctx); err != nil {
		return Result{}, err
	}

	nmeRes, hasNME := resolved[NMEKey]
	if hasNME {
		b.phase("installing nme")
		if err := b.initialize(ctx, NME, nmeRes); err != nil {
			b.Logger.Warn("nme unavailable", "err", err)
		}
	}

	b.phase("filtering dependencies")
	remaining, err := b.partition(ctx, req.Project, nmeRes, hasNME)
	if err != nil {
		return Result{}, err
	}

	repos := make([]repository.Remote, 0, len(req.Repositories)+1)
	repos = append(repos, req.Repositories...)
	repos = append(repos, repository.HaxelibRemote())

	return Result{Toolchain: tc, Remaining: remaining, Repositories: repos}, nil
}

// sdkArtifact derives the platform distribution from a declared tool.
func sdkArtifact(name string, declared artifact.Identity) artifact.Identity {
	id := artifact.Identity{
		Group:   declared.Group,
		Name:    declared.Name,
		Version: declared.Version,
		Type:    artifact.SDKPackaging(),
	}
	if name != NME {
		id.Classifier = artifact.PlatformClassifier()
	}
	return id
}

// resolveSDK resolves id locally, then remotely, retrying a tgz miss once
// under the tar.gz extension.
func (b *Bootstrap) resolveSDK(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	res, found, err := b.resolve(ctx, id)
	if err != nil || found || id.Type != artifact.TypeTgz {
		return res, found, err
	}
	return b.resolve(ctx, id.WithType(artifact.TypeTarGz))
}

func (b *Bootstrap) resolve(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	res, found, err := b.Resolver.ResolveLocal(ctx, id)
	if err != nil || found {
		return res, found, err
	}
	b.Logger.Debug("not in local repository", "artifact", id.String())
	return b.Resolver.ResolveRemote(ctx, id)
}

func (b *Bootstrap) initialize(ctx context.Context, name string, res artifact.Resolved) error {
	t, err := b.Toolchain.MustTool(name)
	if err != nil {
		return err
	}
	return t.Initialize(ctx, res)
}

// setupRepository creates the haxelib repository on first use.
func (b *Bootstrap) setupRepository(ctx context.Context) error {
	bridge := b.Toolchain.Bridge
	if bridge.Ready() {
		return nil
	}
	b.Logger.Info("initializing haxelib repository", "dir", bridge.Root())
	if err := b.Toolchain.PackageManager().Run(ctx, "setup", bridge.Root()); err != nil {
		return fmt.Errorf("haxelib setup: %w", err)
	}
	if err := os.MkdirAll(bridge.Root(), 0o755); err != nil {
		return fmt.Errorf("create haxelib repository: %w", err)
	}
	return nil
}

// partition returns the project dependencies still needing resolution by the
// host. The input slice is not modified.
func (b *Bootstrap) partition(ctx context.Context, project []artifact.Identity, nme artifact.Resolved, hasNME bool) ([]artifact.Identity, error) {
	bridge := b.Toolchain.Bridge
	remaining := make([]artifact.Identity, 0, len(project))

	for _, dep := range project {
		if dep.Classifier == artifact.ClassifierHaxelib {
			if err := b.injectHybrid(ctx, dep); err != nil {
				return nil, err
			}
			continue
		}
		if dep.Type != artifact.TypeHaxelib {
			remaining = append(remaining, dep)
			continue
		}

		if dep.Name == MUnit || dep.Name == ChxDoc {
			if err := b.initialize(ctx, dep.Name, artifact.Resolved{Identity: dep}); err != nil {
				b.Logger.Warn("tool unavailable", "tool", dep.Name, "err", err)
			}
		}
		if _, ok := bridge.Lookup(dep.Name, dep.Version); ok {
			b.Logger.Debug("already installed", "package", dep.Name, "version", dep.Version)
			continue
		}
		if hasNME && dep.Name == nme.Identity.Name && (dep.Version == "" || dep.Version == nme.Identity.Version) {
			continue
		}
		remaining = append(remaining, dep)
	}
	return remaining, nil
}

// injectHybrid installs a packaged haxelib dependency straight into the
// repository layout.
func (b *Bootstrap) injectHybrid(ctx context.Context, dep artifact.Identity) error {
	res, found, err := b.resolve(ctx, dep)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dep, err)
	}
	if !found {
		return &MissingDependencyError{Key: dep.String()}
	}
	dest, err := b.Toolchain.Bridge.DirectoryFor(dep.Name, dep.Version)
	if err != nil {
		return err
	}
	if err := b.Toolchain.Installer.Unpack(ctx, res.File, dest); err != nil {
		return err
	}
	created, err := b.Toolchain.Bridge.EnsureCurrentMarker(dep.Name)
	if err != nil {
		return err
	}
	if created {
		if err := b.Toolchain.PackageManager().Run(ctx, "set", dep.Name, haxelib.CleanVersion(dep.Version)); err != nil {
			b.Logger.Warn("unable to set current version", "package", dep.Name, "err", err)
		}
	}
	return nil
}
