// Package fetch routes dependency downloads either to the host repositories
// or to the haxelib package manager, depending on the artifact type.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"haxeboot/internal/artifact"
	"haxeboot/internal/haxelib"
)

// Download is one requested artifact and the file it should end up in. Err
// is set when the transfer fails; the batch as a whole never fails.
type Download struct {
	Artifact artifact.Identity
	File     string
	Err      error
}

// Fetcher performs the host's default download behaviour.
type Fetcher interface {
	Fetch(ctx context.Context, downloads []*Download)
}

// PackageManager runs haxelib commands.
type PackageManager interface {
	Execute(ctx context.Context, args ...string) (int, error)
}

// Unpacker extracts an archive into a directory.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, dest string) error
}

// Reporter observes per-download progress.
type Reporter interface {
	Start(d *Download)
	Complete(d *Download)
}

// Interceptor sits in front of the default fetcher and diverts haxelib
// artifacts to the package manager.
type Interceptor struct {
	Default  Fetcher
	Bridge   *haxelib.Bridge
	Haxelib  PackageManager
	Unpacker Unpacker
	Reporter Reporter
	Logger   *log.Logger
}

func (i *Interceptor) logger() *log.Logger {
	if i.Logger == nil {
		return log.Default()
	}
	return i.Logger
}

// Fetch completes every download it can and records failures on the
// individual Download values.
func (i *Interceptor) Fetch(ctx context.Context, downloads []*Download) {
	var normal, natives, hybrids []*Download
	for _, d := range downloads {
		switch {
		case d.Artifact.Type == artifact.TypePomHaxelib:
			hybrids = append(hybrids, d)
		case d.Artifact.IsManaged():
			natives = append(natives, d)
		default:
			normal = append(normal, d)
		}
	}

	if len(normal) > 0 {
		for _, d := range normal {
			i.start(d)
		}
		i.Default.Fetch(ctx, normal)
		for _, d := range normal {
			i.complete(d)
		}
	}

	for _, d := range hybrids {
		i.start(d)
		if err := i.fetchHybrid(ctx, d); err != nil {
			d.Err = err
		}
		i.complete(d)
	}

	for _, d := range natives {
		i.start(d)
		if err := i.installNative(ctx, d); err != nil {
			d.Err = err
		}
		i.complete(d)
	}
}

// fetchHybrid downloads the tar.gz form of d, unpacks it into the haxelib
// layout and makes it current the first time.
func (i *Interceptor) fetchHybrid(ctx context.Context, d *Download) error {
	logger := i.logger().With("artifact", d.Artifact.String())
	archiveID := d.Artifact.WithType(artifact.TypeTarGz)
	archiveFile := filepath.Join(filepath.Dir(d.File), archiveID.FileName())
	d.Artifact = archiveID
	d.File = archiveFile

	dest, err := i.Bridge.DirectoryFor(archiveID.Name, archiveID.Version)
	if err != nil {
		return &TransferError{Artifact: archiveID, Err: err}
	}

	if !exists(archiveFile) || !exists(dest) {
		sub := &Download{Artifact: archiveID, File: archiveFile}
		i.Default.Fetch(ctx, []*Download{sub})
		if sub.Err != nil {
			return &TransferError{Artifact: archiveID, Err: sub.Err}
		}
	}

	if err := i.Unpacker.Unpack(ctx, archiveFile, dest); err != nil {
		return &TransferError{Artifact: archiveID, Err: err}
	}

	created, err := i.Bridge.EnsureCurrentMarker(archiveID.Name)
	if err != nil {
		return &TransferError{Artifact: archiveID, Err: err}
	}
	if created {
		code, err := i.Haxelib.Execute(ctx, "set", archiveID.Name, haxelib.CleanVersion(archiveID.Version))
		if err != nil || code != 0 {
			logger.Warn("unable to set current version", "code", code, "err", err)
		}
	}
	logger.Info("installed", "dir", dest)
	return nil
}

// installNative asks haxelib to install d and leaves an empty placeholder at
// d.File so the host sees a completed download.
func (i *Interceptor) installNative(ctx context.Context, d *Download) error {
	name := d.Artifact.Name
	version := haxelib.CleanVersion(d.Artifact.Version)

	code, err := i.Haxelib.Execute(ctx, "install", name, version)
	if err != nil {
		return &TransferError{Artifact: d.Artifact, Err: err}
	}
	if code > 0 {
		return &TransferError{Artifact: d.Artifact, Code: code}
	}

	if err := touch(d.File); err != nil {
		return &TransferError{Artifact: d.Artifact, Err: err}
	}
	i.logger().Info("installed", "package", name, "version", version)
	return nil
}

func (i *Interceptor) start(d *Download) {
	if i.Reporter != nil {
		i.Reporter.Start(d)
	}
}

func (i *Interceptor) complete(d *Download) {
	if d.Err != nil {
		i.logger().Error("transfer failed", "artifact", d.Artifact.String(), "err", d.Err)
	}
	if i.Reporter != nil {
		i.Reporter.Complete(d)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func touch(path string) error {
	if path == "" {
		return errors.New("no destination file")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare placeholder: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create placeholder: %w", err)
	}
	return f.Close()
}
