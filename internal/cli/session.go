package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"haxeboot/internal/config"
	"haxeboot/internal/logx"
	"haxeboot/internal/paths"
	"haxeboot/internal/repository"
	"haxeboot/internal/toolchain"
)

// session bundles what every project command needs: resolved paths, the
// loaded configuration and a logger writing to the project's logs.
type session struct {
	pp     paths.ProjectPaths
	cfg    config.Config
	logger *log.Logger
	closer io.Closer
}

// openSession resolves the project and opens its log. When console is false
// log entries only go to the log file.
func openSession(cmd *cobra.Command, console bool) (*session, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(pp.ConfigFile, pp.Root)
	if err != nil {
		return nil, err
	}
	pp = paths.ApplyConfig(pp, cfg)

	if err := ensureProjectDirs(pp); err != nil {
		return nil, err
	}

	var out io.Writer
	if console {
		out = cmd.ErrOrStderr()
	}
	logger, closer, err := logx.New(pp, out, verbose)
	if err != nil {
		return nil, err
	}
	logger.Debug("project resolved", "root", pp.Root, "home", pp.Home, "output", pp.OutputDir)

	return &session{pp: pp, cfg: cfg, logger: logger, closer: closer}, nil
}

func (s *session) Close() error {
	return s.closer.Close()
}

func ensureProjectDirs(pp paths.ProjectPaths) error {
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}
	return pp.EnsureMetaDirs()
}

func (s *session) newToolchain() *toolchain.Toolchain {
	return toolchain.New(toolchain.Options{
		Home:       s.pp.Home,
		OutputDir:  s.pp.OutputDir,
		ProjectDir: s.pp.Root,
		SearchPath: s.cfg.SearchPath,
		Logger:     s.logger,
	})
}

func (s *session) newResolver() *repository.Resolver {
	return repository.NewResolver(s.pp.LocalRepo, s.cfg.Repositories, s.logger)
}

// bootstrap prepares the toolchain for the project. onPhase may be nil.
func (s *session) bootstrap(ctx context.Context, resolver *repository.Resolver, onPhase func(string)) (toolchain.Result, error) {
	b := toolchain.NewBootstrap(s.newToolchain(), resolver)
	b.OnPhase = onPhase
	return b.Run(ctx, toolchain.Request{
		Tools:        config.Identities(s.cfg.Tools),
		Project:      config.Identities(s.cfg.Dependencies),
		Repositories: s.cfg.Repositories,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
