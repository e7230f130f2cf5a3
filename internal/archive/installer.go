package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"haxeboot/internal/runner"
)

// Installer unpacks archives into versioned directories. A destination is
// either absent or fully populated; partial extractions never become visible.
type Installer struct {
	Runner runner.Runner
	Logger *log.Logger

	// rename promotes the staged tree. Tests swap it to force the mv fallback.
	rename func(oldpath, newpath string) error
}

// NewInstaller returns an Installer that falls back to an external mv
// through r when a rename across filesystems fails.
func NewInstaller(r runner.Runner, logger *log.Logger) *Installer {
	return &Installer{Runner: r, Logger: logger}
}

func (in *Installer) logger() *log.Logger {
	if in.Logger == nil {
		return log.Default()
	}
	return in.Logger
}

// UpToDate reports whether dest exists and is at least as new as the archive.
func UpToDate(archivePath, dest string) (bool, error) {
	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return false, err
	}
	destInfo, err := os.Stat(dest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !archiveInfo.ModTime().After(destInfo.ModTime()), nil
}

// Unpack extracts archivePath into dest. It is a no-op when dest already
// exists and is not older than the archive. A stale dest is removed first.
func (in *Installer) Unpack(ctx context.Context, archivePath, dest string) error {
	logger := in.logger().With("archive", filepath.Base(archivePath))

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}

	if destInfo, err := os.Stat(dest); err == nil {
		if !archiveInfo.ModTime().After(destInfo.ModTime()) {
			logger.Debug("already unpacked", "dest", dest)
			return nil
		}
		logger.Info("replacing stale directory", "dest", dest)
		if err := os.RemoveAll(dest); err != nil {
			return &UnpackError{Archive: archivePath, Dest: dest, Err: fmt.Errorf("remove stale destination: %w", err)}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}

	format, err := DetectFormat(archivePath)
	if err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: fmt.Errorf("prepare parent: %w", err)}
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(dest)+"-unpack-")
	if err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: fmt.Errorf("create staging dir: %w", err)}
	}
	defer func() { _ = os.RemoveAll(staging) }()

	logger.Info("unpacking", "dest", dest)
	if err := extract(ctx, format, archivePath, staging); err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}

	root, err := promotionRoot(staging)
	if err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}
	if err := in.promote(ctx, root, dest); err != nil {
		return &UnpackError{Archive: archivePath, Dest: dest, Err: err}
	}

	stamp := time.Now()
	if archiveInfo.ModTime().After(stamp) {
		stamp = archiveInfo.ModTime()
	}
	if err := os.Chtimes(dest, stamp, stamp); err != nil {
		logger.Warn("could not touch destination", "dest", dest, "err", err)
	}
	return nil
}

// promotionRoot picks the single top-level directory of the staged tree, or
// the staging directory itself when the archive is flat.
func promotionRoot(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", fmt.Errorf("read staging dir: %w", err)
	}
	if len(entries) == 0 {
		return "", ErrEmptyArchive
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(staging, entries[0].Name()), nil
	}
	return staging, nil
}

func (in *Installer) promote(ctx context.Context, src, dest string) error {
	rename := in.rename
	if rename == nil {
		rename = os.Rename
	}
	renameErr := rename(src, dest)
	if renameErr == nil {
		return nil
	}
	if in.Runner == nil {
		return fmt.Errorf("promote %s: %w", dest, renameErr)
	}

	in.logger().Debug("rename failed, falling back to mv", "err", renameErr)
	code, err := in.Runner.Execute(ctx, "mv", []string{src, dest}, runner.Options{Tag: "mv"})
	if err == nil && code != 0 {
		err = fmt.Errorf("mv exited with %d", code)
	}
	if err != nil {
		// A copy that stopped halfway must not pass for an unpacked tree.
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			in.logger().Warn("could not remove partial destination", "dest", dest, "err", rmErr)
		}
		return fmt.Errorf("promote %s: %w", dest, errors.Join(renameErr, err))
	}
	return nil
}
