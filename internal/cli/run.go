package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"haxeboot/internal/toolchain"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool> [args...]",
		Short: "Run a toolchain tool with its environment",
		Long: "Bootstraps the toolchain and runs the named tool. Tool output is logged;\n" +
			"haxeboot exits with the tool's exit code.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTool(cmd, args[0], func(ctx context.Context, t *toolchain.Tool) error {
				err := t.Run(ctx, args[1:]...)
				var toolErr *toolchain.ToolError
				if errors.As(err, &toolErr) {
					return &toolExitError{err: toolErr}
				}
				return err
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newDisplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display <tool> [args...]",
		Short: "Run a toolchain tool and print its standard output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTool(cmd, args[0], func(ctx context.Context, t *toolchain.Tool) error {
				lines, err := t.Capture(ctx, args[1:]...)
				if err != nil {
					return err
				}
				if outputJSON {
					data, err := json.MarshalIndent(map[string]any{"tool": t.Name(), "lines": lines}, "", "  ")
					if err != nil {
						return fmt.Errorf("encode json: %w", err)
					}
					cmd.Println(string(data))
					return nil
				}
				for _, line := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// withTool bootstraps the project toolchain and hands fn the named tool once
// it is ready.
func withTool(cmd *cobra.Command, name string, fn func(ctx context.Context, t *toolchain.Tool) error) error {
	if _, ok := toolchain.LookupCapability(name); !ok {
		return fmt.Errorf("%w: %s (known: %v)", toolchain.ErrUnknownTool, name, toolchain.KnownTools())
	}

	ctx := commandContext(cmd)
	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.bootstrap(ctx, s.newResolver(), nil)
	if err != nil {
		return err
	}
	t, err := res.Toolchain.MustTool(name)
	if err != nil {
		return err
	}
	if !t.IsReady() {
		return fmt.Errorf("%s: %w", name, toolchain.ErrNotInstalled)
	}
	return fn(ctx, t)
}
