package cli

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"haxeboot/internal/artifact"
	"haxeboot/internal/repository"
)

// executeCLI runs the root command with args and returns stdout.
func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if testing.Verbose() && stderr.Len() > 0 {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

const (
	haxeScript = `#!/bin/sh
if [ "$1" = "fail" ]; then
  echo "compilation failed" >&2
  exit 3
fi
echo "Haxe 3.4.7"
`
	haxelibScript = `#!/bin/sh
echo "haxelib $*"
`
	nekoScript = `#!/bin/sh
echo "Neko 2.2.0"
`
)

// project is a haxeboot project whose tool SDKs are shell scripts sitting in
// a private local repository.
type project struct {
	root string
	home string
	repo string
}

func newProject(t *testing.T, extra string) project {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools")
	}
	p := project{
		root: t.TempDir(),
		home: t.TempDir(),
		repo: t.TempDir(),
	}
	t.Setenv("HAXEBOOT_HOME", p.home)

	classifier := artifact.PlatformClassifier()
	haxe := artifact.Identity{Group: "org.haxe.compiler", Name: "haxe-compiler", Version: "3.4.7", Type: artifact.TypeTgz, Classifier: classifier}
	neko := artifact.Identity{Group: "org.nekovm", Name: "nekovm", Version: "2.2.0", Type: artifact.TypeTgz, Classifier: classifier}
	local := repository.Local{Root: p.repo}
	writeTarGz(t, local.Path(haxe), map[string]string{
		"haxe-3.4.7/haxe":       haxeScript,
		"haxe-3.4.7/haxelib":    haxelibScript,
		"haxe-3.4.7/std/Std.hx": "class Std {}\n",
	})
	writeTarGz(t, local.Path(neko), map[string]string{
		"neko-2.2.0/neko": nekoScript,
	})

	cfg := "version: 1\n" +
		"local_repository: " + p.repo + "\n" +
		"tools:\n" +
		"  - org.haxe.compiler:haxe-compiler:3.4.7\n" +
		"  - org.nekovm:nekovm:2.2.0\n" +
		extra
	if err := os.WriteFile(filepath.Join(p.root, "haxeboot.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}
