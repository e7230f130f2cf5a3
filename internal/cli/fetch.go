package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"haxeboot/internal/fetch"
	"haxeboot/internal/tui"
)

var fetchNoProgress bool

type fetchReport struct {
	Project string        `json:"project"`
	Results []fetchResult `json:"results"`
	Failed  int           `json:"failed"`
}

type fetchResult struct {
	Artifact string `json:"artifact"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	File     string `json:"file,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Bootstrap the toolchain and fetch the remaining project dependencies",
		RunE:  runFetch,
	}
	cmd.Flags().BoolVar(&fetchNoProgress, "no-progress", false, "Disable interactive progress output")
	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	outWriter := cmd.OutOrStdout()
	mode := tui.DetectMode(outWriter, fetchNoProgress, outputJSON)

	s, err := openSession(cmd, mode != tui.ModeTUI)
	if err != nil {
		return err
	}
	defer s.Close()

	resolver := s.newResolver()
	res, err := s.bootstrap(ctx, resolver, nil)
	if err != nil {
		s.logger.Error("bootstrap failed", "err", err)
		return err
	}
	tc := res.Toolchain
	resolver.Remotes = res.Repositories

	downloads := make([]*fetch.Download, 0, len(res.Remaining))
	rows := make([]tui.Row, 0, len(res.Remaining))
	for _, dep := range res.Remaining {
		downloads = append(downloads, &fetch.Download{Artifact: dep, File: resolver.Local.Path(dep)})
		rows = append(rows, tui.Row{Key: dep.String(), Kind: tui.Kind(dep), Status: tui.StatusPending})
	}

	interceptor := &fetch.Interceptor{
		Default:  fetch.NewRepositoryFetcher(resolver),
		Bridge:   tc.Bridge,
		Haxelib:  tc.PackageManager(),
		Unpacker: tc.Installer,
		Logger:   s.logger,
	}

	var finalRows []tui.Row
	if mode == tui.ModeTUI {
		fmt.Fprintf(outWriter, "Project: %s\n", s.pp.Root)
		model := tui.NewFetchModel("Fetching dependencies")
		for _, row := range rows {
			model.AddRow(row.Key, row.Kind)
		}
		final, err := tui.RunWithWork(outWriter, model, func(send func(tea.Msg)) {
			interceptor.Reporter = tui.NewFetchReporter(send)
			interceptor.Fetch(ctx, downloads)
		})
		if err != nil {
			return err
		}
		finalRows = final.Rows()
	} else {
		send, result := tui.Collect(rows)
		interceptor.Reporter = tui.NewFetchReporter(send)
		interceptor.Fetch(ctx, downloads)
		finalRows = result()
	}

	report := buildFetchReport(s.pp.Root, finalRows, downloads)
	switch mode {
	case tui.ModeJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(outWriter, string(data))
	case tui.ModePlain:
		writeFetchTable(outWriter, report)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d dependencies failed", report.Failed, len(report.Results))
	}
	return nil
}

func buildFetchReport(root string, rows []tui.Row, downloads []*fetch.Download) fetchReport {
	report := fetchReport{Project: root, Results: make([]fetchResult, 0, len(rows))}
	for i, row := range rows {
		result := fetchResult{Artifact: row.Key, Kind: row.Kind, Status: row.Status}
		if i < len(downloads) {
			d := downloads[i]
			result.File = d.File
			if d.Err != nil {
				result.Status = tui.StatusFailed
				result.Error = d.Err.Error()
			}
		}
		if result.Status == tui.StatusFailed {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}
	return report
}

func writeFetchTable(out io.Writer, report fetchReport) {
	fmt.Fprintf(out, "Project: %s\n", report.Project)
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "All dependencies satisfied")
		return
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tKIND\tSTATUS\tDETAIL")
	for _, r := range report.Results {
		detail := r.File
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Artifact, r.Kind, r.Status, tui.NonEmptyOrDash(detail))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d artifacts, %d failed\n", len(report.Results), report.Failed)
}
