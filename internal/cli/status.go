package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"haxeboot/internal/config"
	"haxeboot/internal/logx"
	"haxeboot/internal/paths"
	"haxeboot/internal/toolchain"
)

type statusReport struct {
	Project string       `json:"project"`
	Home    string       `json:"home"`
	Tools   []toolStatus `json:"tools"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installed tools without bootstrapping",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
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
	logger.Debug("reading manifest", "path", toolchain.ManifestPath(pp.Home))
	manifest, err := toolchain.LoadManifest(pp.Home)
	if err != nil {
		return err
	}
	if len(manifest.Entries) == 0 {
		logger.Warn("no tools installed yet; run bootstrap", "home", pp.Home)
	}

	report := statusReport{
		Project: pp.Root,
		Home:    pp.Home,
		Tools:   installedStatuses(pp.Home, cfg, manifest),
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
	cmd.Printf("Home:    %s\n", report.Home)
	printStatusTable(cmd, report.Tools)
	for _, st := range report.Tools {
		if len(st.Cached) > 1 {
			cmd.Printf("  %s cached versions: %s\n", st.Tool, strings.Join(st.Cached, ", "))
		}
	}
	return nil
}

// installedStatuses reports what the manifest says is unpacked under home,
// for the tools that record an install.
func installedStatuses(home string, cfg config.Config, manifest toolchain.Manifest) []toolStatus {
	declared := map[string]string{}
	for _, tool := range cfg.Tools {
		if name, ok := toolchain.ToolForKey(tool.Key()); ok {
			declared[name] = tool.Name
		}
	}

	var statuses []toolStatus
	for _, name := range toolchain.KnownTools() {
		capability, _ := toolchain.LookupCapability(name)
		source := name
		if capability.SharesWith != "" {
			source = capability.SharesWith
		}
		entry, installed := manifest.Entries[source]
		_, isDeclared := declared[source]
		if !installed && !isDeclared {
			continue
		}

		st := toolStatus{Tool: name, Mandatory: capability.Mandatory}
		artifactName := declared[source]
		if installed {
			st.Version = entry.Artifact.Version
			st.Path = entry.Dir
			artifactName = entry.Artifact.Name
			if ok, err := paths.DirExists(entry.Dir); err != nil {
				st.Error = err.Error()
			} else {
				st.Ready = ok
			}
		}
		if capability.SharesWith == "" && capability.Layout == toolchain.LayoutHome && artifactName != "" {
			st.Cached = cachedVersions(home, artifactName)
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// cachedVersions lists the versions unpacked as <home>/<name>-<version>,
// newest first.
func cachedVersions(home, name string) []string {
	entries, err := os.ReadDir(home)
	if err != nil {
		return nil
	}
	prefix := name + "-"
	var versions []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		version := strings.TrimPrefix(e.Name(), prefix)
		if version != "" {
			versions = append(versions, version)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		vi, vj := "v"+versions[i], "v"+versions[j]
		if semver.IsValid(vi) && semver.IsValid(vj) {
			return semver.Compare(vi, vj) > 0
		}
		return versions[i] > versions[j]
	})
	return versions
}
