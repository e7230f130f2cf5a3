package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"haxeboot/internal/toolchain"
	"haxeboot/internal/tui"
)

// toolStatus is one row of the tool tables printed by bootstrap and status.
type toolStatus struct {
	Tool      string   `json:"tool"`
	Mandatory bool     `json:"mandatory"`
	Version   string   `json:"version,omitempty"`
	Ready     bool     `json:"ready"`
	Path      string   `json:"path,omitempty"`
	Cached    []string `json:"cached,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type bootstrapReport struct {
	Project   string            `json:"project"`
	Tools     []toolStatus      `json:"tools"`
	Remaining []string          `json:"remaining"`
	Phases    []tui.PhaseTiming `json:"phases,omitempty"`
}

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Resolve and install the declared toolchain",
		RunE:  runBootstrap,
	}
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	mode := tui.DetectMode(cmd.ErrOrStderr(), false, outputJSON)

	s, err := openSession(cmd, mode != tui.ModeTUI)
	if err != nil {
		return err
	}
	defer s.Close()

	var status *tui.StatusWriter
	var onPhase func(string)
	if mode == tui.ModeTUI {
		status = tui.NewStatusWriter(cmd.ErrOrStderr())
		onPhase = status.Update
	}
	res, err := s.bootstrap(ctx, s.newResolver(), onPhase)
	if status != nil {
		status.Stop()
	}
	if err != nil {
		s.logger.Error("bootstrap failed", "err", err)
		return err
	}

	report := bootstrapReport{
		Project:   s.pp.Root,
		Tools:     toolchainStatuses(res.Toolchain),
		Remaining: make([]string, 0, len(res.Remaining)),
	}
	for _, dep := range res.Remaining {
		report.Remaining = append(report.Remaining, dep.String())
	}
	if status != nil {
		report.Phases = status.Phases()
	}

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Project: %s\n", report.Project)
	printStatusTable(cmd, report.Tools)
	for _, p := range report.Phases {
		cmd.Printf("  %-30s %s\n", p.Name, tui.FormatElapsed(p.Elapsed))
	}
	if len(report.Remaining) == 0 {
		cmd.Println("All dependencies satisfied")
		return nil
	}
	cmd.Printf("%d dependencies left to fetch:\n", len(report.Remaining))
	for _, dep := range report.Remaining {
		cmd.Printf("  %s\n", dep)
	}
	return nil
}

func toolchainStatuses(tc *toolchain.Toolchain) []toolStatus {
	statuses := make([]toolStatus, 0, len(toolchain.KnownTools()))
	for _, t := range tc.Tools() {
		st := toolStatus{
			Tool:      t.Name(),
			Mandatory: t.Mandatory(),
			Version:   t.Artifact().Version,
			Ready:     t.IsReady(),
		}
		if dir, err := t.InstalledPath(); err == nil {
			st.Path = dir
		} else if !errors.Is(err, toolchain.ErrNotInstalled) {
			st.Error = err.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func printStatusTable(cmd *cobra.Command, statuses []toolStatus) {
	if len(statuses) == 0 {
		cmd.Println("(no tool statuses)")
		return
	}

	rows := make([]toolStatus, len(statuses))
	copy(rows, statuses)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Tool < rows[j].Tool
	})

	cmd.Printf("%-10s %-10s %-12s %-7s %s\n", "Tool", "Kind", "Version", "OK", "Path")
	for _, st := range rows {
		kind := "optional"
		if st.Mandatory {
			kind = "mandatory"
		}
		ok := "no"
		if st.Ready {
			ok = "yes"
		}
		path := st.Path
		if path == "" {
			path = "(missing)"
		}
		cmd.Printf("%-10s %-10s %-12s %-7s %s\n", st.Tool, kind, tui.NonEmptyOrDash(st.Version), ok, path)
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
	}
}
