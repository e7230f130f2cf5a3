package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"haxeboot/internal/config"
	"haxeboot/internal/haxelib"
	"haxeboot/internal/logx"
	"haxeboot/internal/paths"
	"haxeboot/internal/toolchain"
	"haxeboot/internal/tui"
)

type libStatus struct {
	Name     string   `json:"name"`
	Versions []string `json:"versions"`
	Current  string   `json:"current,omitempty"`
	Declared string   `json:"declared,omitempty"`
}

func newLibsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "libs",
		Short: "List packages installed in the haxelib repository",
		RunE:  runLibs,
	}
}

func runLibs(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile, pp.Root)
	if err != nil {
		return err
	}
	pp = paths.ApplyConfig(pp, cfg)

	logger := logx.Console(cmd.ErrOrStderr(), verbose)
	bridge := haxelib.NewBridge(filepath.Join(pp.Home, toolchain.HaxelibRepoDir))
	logger.Debug("listing haxelib repository", "root", bridge.Root())
	libs, err := listLibs(bridge, cfg)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(map[string]any{"repository": bridge.Root(), "libs": libs}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if !bridge.Ready() {
		cmd.Printf("No haxelib repository at %s; run bootstrap first\n", bridge.Root())
		return nil
	}
	cmd.Printf("Repository: %s\n", bridge.Root())
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSIONS\tCURRENT\tDECLARED")
	for _, lib := range libs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			lib.Name,
			tui.NonEmptyOrDash(strings.Join(lib.Versions, " ")),
			tui.NonEmptyOrDash(lib.Current),
			tui.NonEmptyOrDash(lib.Declared),
		)
	}
	return w.Flush()
}

// listLibs joins what is on disk with the haxelib dependencies the project
// declares, so declared but missing packages show up too.
func listLibs(bridge *haxelib.Bridge, cfg config.Config) ([]libStatus, error) {
	names, err := bridge.Packages()
	if err != nil {
		return nil, err
	}

	declared := map[string]string{}
	for _, dep := range cfg.Dependencies {
		if dep.IsManaged() || dep.IsHybrid() {
			declared[dep.Name] = dep.Version
		}
	}

	seen := map[string]bool{}
	libs := make([]libStatus, 0, len(names)+len(declared))
	for _, name := range names {
		versions, err := bridge.Versions(name)
		if err != nil {
			return nil, err
		}
		current, _ := bridge.Current(name)
		libs = append(libs, libStatus{Name: name, Versions: versions, Current: current, Declared: declared[name]})
		seen[name] = true
	}
	for _, dep := range cfg.Dependencies {
		if seen[dep.Name] || (!dep.IsManaged() && !dep.IsHybrid()) {
			continue
		}
		seen[dep.Name] = true
		libs = append(libs, libStatus{Name: dep.Name, Versions: []string{}, Declared: dep.Version})
	}
	return libs, nil
}
