package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"haxeboot/internal/archive"
	"haxeboot/internal/artifact"
	"haxeboot/internal/haxelib"
)

// fakeHaxelib simulates the package manager: "install" creates the version
// directory unless the package is listed in fail.
type fakeHaxelib struct {
	bridge *haxelib.Bridge
	fail   map[string]int
	calls  []string
}

func (f *fakeHaxelib) Execute(_ context.Context, args ...string) (int, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	if len(args) == 3 && args[0] == "install" {
		if code, ok := f.fail[args[1]]; ok {
			return code, nil
		}
		dir, err := f.bridge.DirectoryFor(args[1], args[2])
		if err != nil {
			return 1, nil
		}
		return 0, os.MkdirAll(dir, 0o755)
	}
	return 0, nil
}

type recordingFetcher struct {
	got   []artifact.Identity
	files map[string][]byte
}

func (r *recordingFetcher) Fetch(_ context.Context, downloads []*Download) {
	for _, d := range downloads {
		r.got = append(r.got, d.Artifact)
		body, ok := r.files[d.Artifact.String()]
		if !ok {
			d.Err = &TransferError{Artifact: d.Artifact, Err: ErrNotFound}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(d.File), 0o755); err != nil {
			d.Err = err
			continue
		}
		if err := os.WriteFile(d.File, body, 0o644); err != nil {
			d.Err = err
		}
	}
}

type recordingReporter struct {
	started, completed []string
}

func (r *recordingReporter) Start(d *Download)    { r.started = append(r.started, d.Artifact.Name) }
func (r *recordingReporter) Complete(d *Download) { r.completed = append(r.completed, d.Artifact.Name) }

func newInterceptor(t *testing.T) (*Interceptor, *fakeHaxelib, *recordingFetcher, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "_haxelib")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	bridge := haxelib.NewBridge(root)
	pm := &fakeHaxelib{bridge: bridge, fail: map[string]int{}}
	def := &recordingFetcher{files: map[string][]byte{}}
	logger := log.New(io.Discard)
	in := &Interceptor{
		Default:  def,
		Bridge:   bridge,
		Haxelib:  pm,
		Unpacker: archive.NewInstaller(nil, logger),
		Logger:   logger,
	}
	return in, pm, def, dir
}

func TestFetchRoutesNormalAndNative(t *testing.T) {
	in, pm, def, dir := newInterceptor(t)
	jar := artifact.Identity{Group: "junit", Name: "junit", Version: "4.0", Type: artifact.TypeJar}
	def.files[jar.String()] = []byte("jar")
	foo := artifact.Identity{Group: "org.haxe.lib", Name: "foo", Version: "1.2.3-rc1", Type: artifact.TypeHaxelib}

	downloads := []*Download{
		{Artifact: jar, File: filepath.Join(dir, "lib", jar.FileName())},
		{Artifact: foo, File: filepath.Join(dir, "lib", foo.FileName())},
	}
	in.Fetch(context.Background(), downloads)

	for _, d := range downloads {
		if d.Err != nil {
			t.Fatalf("%s: %v", d.Artifact, d.Err)
		}
	}
	if len(def.got) != 1 || def.got[0] != jar {
		t.Fatalf("default fetcher got %v", def.got)
	}
	if len(pm.calls) != 1 || pm.calls[0] != "install foo 1.2.3" {
		t.Fatalf("haxelib calls = %v", pm.calls)
	}
	if got, ok := in.Bridge.Lookup("foo", "1.2.3"); !ok || got != filepath.Join(in.Bridge.Root(), "foo", "1,2,3") {
		t.Fatalf("foo lookup = %s, %v", got, ok)
	}
	info, err := os.Stat(downloads[1].File)
	if err != nil || info.Size() != 0 {
		t.Fatalf("placeholder = %v, %v", info, err)
	}
}

func TestFetchIsolatesFailures(t *testing.T) {
	in, pm, _, dir := newInterceptor(t)
	pm.fail["broken"] = 1
	good := artifact.Identity{Group: "org.haxe.lib", Name: "good", Version: "1.0.0", Type: artifact.TypeHaxelib}
	bad := artifact.Identity{Group: "org.haxe.lib", Name: "broken", Version: "0.1.0", Type: artifact.TypeHaxelib}
	downloads := []*Download{
		{Artifact: bad, File: filepath.Join(dir, "lib", bad.FileName())},
		{Artifact: good, File: filepath.Join(dir, "lib", good.FileName())},
	}
	reporter := &recordingReporter{}
	in.Reporter = reporter

	in.Fetch(context.Background(), downloads)

	var transfer *TransferError
	if !errors.As(downloads[0].Err, &transfer) || transfer.Code != 1 || transfer.Artifact.Name != "broken" {
		t.Fatalf("broken err = %v", downloads[0].Err)
	}
	if !errors.Is(downloads[0].Err, ErrTransfer) {
		t.Fatal("errors.Is(ErrTransfer) = false")
	}
	if _, err := os.Stat(downloads[0].File); !os.IsNotExist(err) {
		t.Fatal("placeholder created for failed install")
	}
	if downloads[1].Err != nil {
		t.Fatalf("good err = %v", downloads[1].Err)
	}
	if strings.Join(reporter.started, ",") != "broken,good" || strings.Join(reporter.completed, ",") != "broken,good" {
		t.Fatalf("reporter = %+v", reporter)
	}
}

type execFailure struct{}

func (execFailure) Execute(context.Context, ...string) (int, error) {
	return -1, errors.New("haxelib: no such file")
}

func TestFetchExecutionFailureIsAttached(t *testing.T) {
	in, _, _, dir := newInterceptor(t)
	in.Haxelib = execFailure{}
	d := &Download{Artifact: artifact.Identity{Group: "g", Name: "x", Version: "1", Type: artifact.TypeHaxelib}, File: filepath.Join(dir, "x")}

	in.Fetch(context.Background(), []*Download{d})
	if !errors.Is(d.Err, ErrTransfer) || !strings.Contains(d.Err.Error(), "no such file") {
		t.Fatalf("err = %v", d.Err)
	}
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(tw, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	gz := gzip.NewWriter(&out)
	if _, err := gz.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return out.Bytes()
}

func TestFetchHybridInstallsIntoRepository(t *testing.T) {
	in, pm, def, dir := newInterceptor(t)
	pom := artifact.Identity{Group: "org.haxe.lib", Name: "mlib", Version: "2.0.0-SNAPSHOT", Type: artifact.TypePomHaxelib}
	archiveID := pom.WithType(artifact.TypeTarGz)
	def.files[archiveID.String()] = tarGz(t, map[string]string{"mlib/haxelib.json": "{}"})

	d := &Download{Artifact: pom, File: filepath.Join(dir, "lib", pom.FileName())}
	in.Fetch(context.Background(), []*Download{d})
	if d.Err != nil {
		t.Fatalf("hybrid err = %v", d.Err)
	}
	if d.Artifact != archiveID || filepath.Base(d.File) != archiveID.FileName() {
		t.Fatalf("download not rewritten: %+v", d)
	}
	if _, err := os.Stat(filepath.Join(in.Bridge.Root(), "mlib", "2,0,0", "haxelib.json")); err != nil {
		t.Fatalf("hybrid not unpacked: %v", err)
	}
	if len(pm.calls) != 1 || pm.calls[0] != "set mlib 2.0.0" {
		t.Fatalf("haxelib calls = %v", pm.calls)
	}

	again := &Download{Artifact: pom, File: filepath.Join(dir, "lib", pom.FileName())}
	in.Fetch(context.Background(), []*Download{again})
	if again.Err != nil {
		t.Fatalf("second hybrid err = %v", again.Err)
	}
	if len(def.got) != 1 {
		t.Fatalf("archive fetched again: %v", def.got)
	}
	if len(pm.calls) != 1 {
		t.Fatalf("set repeated: %v", pm.calls)
	}
}

func TestFetchHybridMissingArchive(t *testing.T) {
	in, pm, _, dir := newInterceptor(t)
	pom := artifact.Identity{Group: "g", Name: "ghost", Version: "1.0", Type: artifact.TypePomHaxelib}
	d := &Download{Artifact: pom, File: filepath.Join(dir, "lib", pom.FileName())}

	in.Fetch(context.Background(), []*Download{d})
	if !errors.Is(d.Err, ErrTransfer) || !errors.Is(d.Err, ErrNotFound) {
		t.Fatalf("err = %v", d.Err)
	}
	if len(pm.calls) != 0 {
		t.Fatalf("haxelib called: %v", pm.calls)
	}
}
