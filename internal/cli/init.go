package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"haxeboot/internal/config"
	"haxeboot/internal/logx"
	"haxeboot/internal/paths"
)

const gitignoreEntries = `.haxeboot/
target/
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a haxeboot project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	return cmd
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		if filepath.IsAbs(args[0]) {
			return args[0], nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("haxeboot-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}

	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp, nil, verbose)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("haxeboot init", "project", pp.Root)

	created := make([]string, 0, 2)

	if err := ensureConfig(pp, &created, logger); err != nil {
		return err
	}

	if err := ensureGitignore(pp, &created, logger); err != nil {
		return err
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}

	return nil
}

func ensureConfig(pp paths.ProjectPaths, created *[]string, logger *log.Logger) error {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		logger.Info("config exists", "path", pp.ConfigFile)
		return nil
	}

	cfg := config.Default()
	cfg.ApplyDefaults()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Info("created config", "path", pp.ConfigFile)
	*created = append(*created, config.FileName)
	return nil
}

func ensureGitignore(pp paths.ProjectPaths, created *[]string, logger *log.Logger) error {
	path := filepath.Join(pp.Root, ".gitignore")
	exists, err := paths.FileExists(path)
	if err != nil {
		return fmt.Errorf("check .gitignore: %w", err)
	}
	if exists {
		logger.Info(".gitignore exists", "path", path)
		return nil
	}

	if err := os.WriteFile(path, []byte(gitignoreEntries), 0o644); err != nil {
		return fmt.Errorf("write .gitignore: %w", err)
	}
	logger.Info("created .gitignore", "path", path)
	*created = append(*created, ".gitignore")
	return nil
}
