package config

import (
	"strings"
	"testing"

	"haxeboot/internal/repository"
)

var testKnownTools = map[string]string{
	"org.haxe.compiler:haxe-compiler": "haxe",
	"org.nekovm:nekovm":               "neko",
	"org.haxenme:nme":                 "nme",
}

func TestValidateDefaultsClean(t *testing.T) {
	cfg := Default()
	results := cfg.Validate(t.TempDir(), testKnownTools)
	if len(results) != 0 {
		t.Fatalf("expected no findings, got %+v", results)
	}
}

func TestValidateMissingMandatoryTool(t *testing.T) {
	cfg := Default()
	cfg.Tools = cfg.Tools[:1]
	results := cfg.Validate(t.TempDir(), testKnownTools)
	if !HasErrors(results) {
		t.Fatalf("expected error, got %+v", results)
	}
	if !containsMessage(results, "neko") {
		t.Fatalf("expected neko to be reported, got %+v", results)
	}
}

func TestValidateUnknownToolWarns(t *testing.T) {
	cfg := Default()
	cfg.Tools = append(cfg.Tools, Coordinate{})
	cfg.Tools[2].Group, cfg.Tools[2].Name, cfg.Tools[2].Version = "com.example", "thing", "1.0"
	results := cfg.Validate(t.TempDir(), testKnownTools)
	if HasErrors(results) {
		t.Fatalf("unexpected error: %+v", results)
	}
	if !containsMessage(results, "com.example:thing") {
		t.Fatalf("expected warning for unknown tool, got %+v", results)
	}
}

func TestValidateDuplicateDependencies(t *testing.T) {
	cfg := Default()
	dep := Coordinate{}
	dep.Group, dep.Name, dep.Version = "org.haxe.lib", "munit", "2.3.2"
	cfg.Dependencies = []Coordinate{dep, dep}
	results := cfg.Validate(t.TempDir(), testKnownTools)
	if !containsMessage(results, "declared 2 times") {
		t.Fatalf("expected duplicate finding, got %+v", results)
	}
}

func TestValidateRepositories(t *testing.T) {
	cfg := Default()
	cfg.Repositories = append(cfg.Repositories,
		repository.Remote{ID: "central", URL: "ftp://example.com", Releases: true},
		repository.HaxelibRemote(),
	)
	results := cfg.Validate(t.TempDir(), testKnownTools)
	for _, want := range []string{"used more than once", "invalid url", "haxelib layout"} {
		if !containsMessage(results, want) {
			t.Errorf("missing finding %q in %+v", want, results)
		}
	}
}

func TestValidateMissingDependencyFile(t *testing.T) {
	cfg := Default()
	cfg.DependencyFiles = []string{"nope.yaml"}
	results := cfg.Validate(t.TempDir(), testKnownTools)
	if !containsMessage(results, `dependency file "nope.yaml" not found`) {
		t.Fatalf("expected missing file finding, got %+v", results)
	}
}

func containsMessage(results []ValidationResult, substr string) bool {
	for _, r := range results {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}
