package paths

import (
	"os"
	"path/filepath"
	"testing"

	"haxeboot/internal/config"
)

func TestResolveDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	root := t.TempDir()

	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pp.ConfigFile != filepath.Join(root, "haxeboot.yaml") {
		t.Fatalf("ConfigFile = %s", pp.ConfigFile)
	}
	if pp.OutputDir != filepath.Join(root, "target") {
		t.Fatalf("OutputDir = %s", pp.OutputDir)
	}
	if pp.Home != home {
		t.Fatalf("Home = %s, want %s", pp.Home, home)
	}
	if pp.LocalRepo != filepath.Join(home, "repository") {
		t.Fatalf("LocalRepo = %s", pp.LocalRepo)
	}
}

func TestApplyConfigRelative(t *testing.T) {
	root := t.TempDir()
	pp := newProjectPaths(root, t.TempDir())

	cfg := config.Config{OutputDir: "build/out", Home: "toolchain"}
	applied := ApplyConfig(pp, cfg)

	if want := filepath.Join(root, "build/out"); applied.OutputDir != want {
		t.Fatalf("expected output dir %s, got %s", want, applied.OutputDir)
	}
	if want := filepath.Join(root, "toolchain"); applied.Home != want {
		t.Fatalf("expected home %s, got %s", want, applied.Home)
	}
	if want := filepath.Join(root, "toolchain", "repository"); applied.LocalRepo != want {
		t.Fatalf("expected local repo %s, got %s", want, applied.LocalRepo)
	}
}

func TestApplyConfigAbsolute(t *testing.T) {
	root := t.TempDir()
	pp := newProjectPaths(root, t.TempDir())

	outAbs := filepath.Join(t.TempDir(), "out")
	repoAbs := filepath.Join(t.TempDir(), "m2")

	cfg := config.Config{OutputDir: outAbs, LocalRepository: repoAbs}
	applied := ApplyConfig(pp, cfg)

	if applied.OutputDir != outAbs {
		t.Fatalf("expected output dir %s, got %s", outAbs, applied.OutputDir)
	}
	if applied.LocalRepo != repoAbs {
		t.Fatalf("expected local repo %s, got %s", repoAbs, applied.LocalRepo)
	}
	if applied.Home != pp.Home {
		t.Fatalf("home should be unchanged, got %s", applied.Home)
	}
}

func TestExistsHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := FileExists(file); err != nil || !ok {
		t.Fatalf("FileExists(file) = %v, %v", ok, err)
	}
	if ok, _ := FileExists(dir); ok {
		t.Fatal("FileExists(dir) should be false")
	}
	if ok, err := DirExists(dir); err != nil || !ok {
		t.Fatalf("DirExists(dir) = %v, %v", ok, err)
	}
	if ok, err := DirExists(filepath.Join(dir, "missing")); err != nil || ok {
		t.Fatalf("DirExists(missing) = %v, %v", ok, err)
	}
}

func TestHomeFor(t *testing.T) {
	cases := []struct {
		goos, local, want string
	}{
		{"linux", "", filepath.Join("/u", ".local", "share", "haxeboot")},
		{"darwin", "", filepath.Join("/u", "Library", "Application Support", "Haxeboot")},
		{"windows", "/appdata", filepath.Join("/appdata", "Haxeboot")},
		{"windows", "", filepath.Join("/u", "AppData", "Local", "Haxeboot")},
	}
	for _, tc := range cases {
		if got := homeFor(tc.goos, "/u", tc.local); got != tc.want {
			t.Errorf("homeFor(%s, %q) = %s, want %s", tc.goos, tc.local, got, tc.want)
		}
	}
}
