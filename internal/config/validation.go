package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"haxeboot/internal/repository"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate runs the strict checks against the config. knownTools maps the
// group:name keys the toolchain understands to their tool names.
func (c Config) Validate(projectRoot string, knownTools map[string]string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateDependencyFiles(projectRoot)...)
	results = append(results, c.validateTools(knownTools)...)
	results = append(results, c.validateDuplicates()...)
	results = append(results, c.validateRepositories()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateDependencyFiles(projectRoot string) []ValidationResult {
	var results []ValidationResult
	for _, path := range c.DependencyFiles {
		if _, err := os.Stat(resolveExternalPath(projectRoot, path)); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("dependency file %q not found", path),
			})
		}
	}
	return results
}

func (c Config) validateTools(knownTools map[string]string) []ValidationResult {
	var results []ValidationResult
	declared := map[string]bool{}
	for _, tool := range c.Tools {
		name, ok := knownTools[tool.Key()]
		if !ok {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tool %s is not a known toolchain artifact and will be ignored", tool.Key()),
			})
			continue
		}
		declared[name] = true
	}

	var missing []string
	for _, name := range []string{"neko", "haxe"} {
		if !declared[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("mandatory tools not declared: %s", strings.Join(missing, ", ")),
		})
	}
	return results
}

func (c Config) validateDuplicates() []ValidationResult {
	counts := map[string]int{}
	for _, dep := range c.Dependencies {
		counts[dep.Key()]++
	}
	var dupes []string
	for key, n := range counts {
		if n > 1 {
			dupes = append(dupes, key)
		}
	}
	sort.Strings(dupes)

	var results []ValidationResult
	for _, key := range dupes {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("dependency %s declared %d times", key, counts[key]),
		})
	}
	return results
}

func (c Config) validateRepositories() []ValidationResult {
	var results []ValidationResult
	ids := map[string]bool{}
	for _, repo := range c.Repositories {
		if repo.ID == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("repository %q has no id", repo.URL),
			})
		} else if ids[repo.ID] {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("repository id %q used more than once", repo.ID),
			})
		}
		ids[repo.ID] = true

		u, err := url.Parse(repo.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("repository %q: invalid url %q", repo.ID, repo.URL),
			})
		}
		if repo.Layout == repository.LayoutHaxelib {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("repository %q uses the haxelib layout; haxelib artifacts are installed by the haxelib tool", repo.ID),
			})
		}
		if !repo.Releases && !repo.Snapshots {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("repository %q serves neither releases nor snapshots", repo.ID),
			})
		}
	}
	return results
}
