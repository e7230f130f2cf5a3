package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"haxeboot/internal/toolchain"
)

var (
	projectDir string
	outputJSON bool
	verbose    bool
)

// Execute runs the root cobra command. Interrupts cancel the command
// context so running tools are stopped and install locks released. When
// `run` reports a tool that exited non-zero, haxeboot exits with the same
// code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCmd()
	cmd.SetOut(os.Stdout)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	code, report := exitStatus(err)
	if report {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

// toolExitError carries the exit code of a tool started by `run`. Its output
// was already streamed, so nothing more is printed.
type toolExitError struct {
	err *toolchain.ToolError
}

func (e *toolExitError) Error() string { return e.err.Error() }
func (e *toolExitError) Unwrap() error { return e.err }

// exitStatus maps a command error to the process exit code and whether the
// error still has to be printed.
func exitStatus(err error) (int, bool) {
	var exit *toolExitError
	if errors.As(err, &exit) && exit.err.Code > 0 {
		return exit.err.Code, false
	}
	return 1, true
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "haxeboot",
		Short:         "Bootstrap the Haxe toolchain and install haxelib dependencies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&projectDir, "project", "", "Path to project directory")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newBootstrapCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDisplayCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLibsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
