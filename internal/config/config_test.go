package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"haxeboot/internal/artifact"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName), t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "target" {
		t.Fatalf("OutputDir = %q, want target", cfg.OutputDir)
	}
	if len(cfg.Tools) != 2 {
		t.Fatalf("expected default tools, got %v", cfg.Tools)
	}
	if len(cfg.Repositories) != 1 || cfg.Repositories[0].ID != "central" {
		t.Fatalf("unexpected repositories %+v", cfg.Repositories)
	}
}

func TestLoadShorthandAndMapping(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	contents := `
version: 1
output_dir: build
tools:
  - org.haxe:haxe:3.4.7:tgz:linux
  - group: org.nekovm
    name: neko
    version: 2.2.0
    type: tgz
dependencies:
  - org.haxe.lib:munit:2.3.2:haxelib
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "build" {
		t.Fatalf("OutputDir = %q", cfg.OutputDir)
	}
	want := artifact.Identity{Group: "org.haxe", Name: "haxe", Version: "3.4.7", Type: "tgz", Classifier: "linux"}
	if cfg.Tools[0].Identity != want {
		t.Fatalf("tool[0] = %+v, want %+v", cfg.Tools[0].Identity, want)
	}
	if cfg.Tools[1].Key() != "org.nekovm:neko" || cfg.Tools[1].Type != "tgz" {
		t.Fatalf("tool[1] = %+v", cfg.Tools[1].Identity)
	}
	if len(cfg.Dependencies) != 1 || !cfg.Dependencies[0].IsManaged() {
		t.Fatalf("dependencies = %+v", cfg.Dependencies)
	}
	if len(cfg.Repositories) != 1 {
		t.Fatalf("expected default repository to be applied, got %+v", cfg.Repositories)
	}
}

func TestLoadRejectsBadCoordinate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte("tools:\n  - org.haxe:haxe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, root); err == nil {
		t.Fatal("expected error for incomplete coordinates")
	}
}

func TestLoadRejectsMappingWithoutVersion(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte("tools:\n  - group: org.haxe\n    name: haxe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, root)
	if err == nil || !strings.Contains(err.Error(), "version is required") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestCoordinateMarshalShorthand(t *testing.T) {
	cases := map[string]artifact.Identity{
		"org.haxe:haxe:3.4.7":           {Group: "org.haxe", Name: "haxe", Version: "3.4.7"},
		"org.haxe:haxe:3.4.7:tgz":       {Group: "org.haxe", Name: "haxe", Version: "3.4.7", Type: "tgz"},
		"org.haxe:haxe:3.4.7:tgz:linux": {Group: "org.haxe", Name: "haxe", Version: "3.4.7", Type: "tgz", Classifier: "linux"},
		"org.haxe.lib:foo:1.0::haxelib": {Group: "org.haxe.lib", Name: "foo", Version: "1.0", Classifier: "haxelib"},
	}
	for want, id := range cases {
		out, err := yaml.Marshal(Coordinate{Identity: id})
		if err != nil {
			t.Fatalf("marshal %v: %v", id, err)
		}
		if got := strings.TrimSpace(string(out)); got != want {
			t.Errorf("marshal %+v = %q, want %q", id, got, want)
		}

		var back Coordinate
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatalf("unmarshal %q: %v", out, err)
		}
		if back.Identity != id {
			t.Errorf("round trip %+v = %+v", id, back.Identity)
		}
	}
}

func TestApplyDefaultsFillsLayout(t *testing.T) {
	cfg := Config{}
	cfg.Repositories = append(cfg.Repositories, MavenCentral())
	cfg.Repositories[0].Layout = ""
	cfg.ApplyDefaults()
	if cfg.Repositories[0].Layout != "default" {
		t.Fatalf("Layout = %q", cfg.Repositories[0].Layout)
	}
	if cfg.Version != 1 || cfg.OutputDir != "target" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestDependencyFilesMerged(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "libs.yaml"), []byte("- org.haxe.lib:hxcpp:3.4.64:haxelib\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, FileName)
	contents := "dependencies:\n  - org.haxe.lib:munit:2.3.2:haxelib\ndependency_files:\n  - libs.yaml\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Dependencies) != 2 || cfg.Dependencies[1].Name != "hxcpp" {
		t.Fatalf("dependencies = %+v", cfg.Dependencies)
	}
}

func TestDependencyFilesDuplicate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "libs.yaml"), []byte("- org.haxe.lib:munit:2.0.0:haxelib\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, FileName)
	contents := "dependencies:\n  - org.haxe.lib:munit:2.3.2:haxelib\ndependency_files:\n  - libs.yaml\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, root)
	if err == nil || !strings.Contains(err.Error(), "declared in both") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}
