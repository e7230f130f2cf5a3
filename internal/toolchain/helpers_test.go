package toolchain

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"haxeboot/internal/artifact"
	"haxeboot/internal/runner"
)

type call struct {
	command string
	args    []string
	opts    runner.Options
}

// fakeRunner records invocations and answers with a fixed exit code per
// first argument.
type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	codes map[string]int
	lines []string
}

func (f *fakeRunner) Execute(_ context.Context, command string, args []string, opts runner.Options) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{command: command, args: append([]string(nil), args...), opts: opts})
	if command == "mv" {
		return 0, os.Rename(args[0], args[1])
	}
	if len(args) > 0 {
		return f.codes[args[0]], nil
	}
	return 0, nil
}

func (f *fakeRunner) Capture(ctx context.Context, command string, args []string, opts runner.Options) ([]string, int, error) {
	code, err := f.Execute(ctx, command, args, opts)
	return f.lines, code, err
}

func (f *fakeRunner) find(arg0 string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if len(c.args) > 0 && c.args[0] == arg0 {
			out = append(out, c)
		}
	}
	return out
}

// fakeResolver serves artifacts from in-memory tables keyed by Identity.String().
type fakeResolver struct {
	local   map[string]string
	remote  map[string]string
	lookups []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{local: map[string]string{}, remote: map[string]string{}}
}

func (f *fakeResolver) ResolveLocal(_ context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	f.lookups = append(f.lookups, "local:"+id.String())
	file, ok := f.local[id.String()]
	if !ok {
		return artifact.Resolved{}, false, nil
	}
	return artifact.Resolved{Identity: id, File: file, Local: true}, true, nil
}

func (f *fakeResolver) ResolveRemote(_ context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	f.lookups = append(f.lookups, "remote:"+id.String())
	file, ok := f.remote[id.String()]
	if !ok {
		return artifact.Resolved{}, false, nil
	}
	return artifact.Resolved{Identity: id, File: file}, true, nil
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(tw, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	if _, err := gz.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, gzBuf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

type fixture struct {
	dir      string
	tc       *Toolchain
	runner   *fakeRunner
	resolver *fakeResolver
	boot     *Bootstrap
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	fr := &fakeRunner{codes: map[string]int{}}
	tc := New(Options{
		Home:       filepath.Join(dir, "home"),
		OutputDir:  filepath.Join(dir, "project", "target"),
		SearchPath: []string{"/usr/bin", "/bin"},
		Runner:     fr,
		Logger:     log.New(io.Discard),
	})
	res := newFakeResolver()
	return &fixture{dir: dir, tc: tc, runner: fr, resolver: res, boot: NewBootstrap(tc, res)}
}

// sdk publishes a platform distribution for a declared tool in the fake
// local repository and returns the declared identity.
func (f *fixture) sdk(t *testing.T, key, version string, remote bool) artifact.Identity {
	t.Helper()
	parts := strings.SplitN(key, ":", 2)
	declared := artifact.Identity{Group: parts[0], Name: parts[1], Version: version}
	name, _ := ToolForKey(key)
	id := sdkArtifact(name, declared)
	file := filepath.Join(f.dir, "repo", id.FileName())
	writeTarGz(t, file, map[string]string{
		parts[1] + "-" + version + "/" + name: "#!/bin/sh\n",
		parts[1] + "-" + version + "/run.n":   "neko bytecode",
	})
	if remote {
		f.resolver.remote[id.String()] = file
	} else {
		f.resolver.local[id.String()] = file
	}
	return declared
}
