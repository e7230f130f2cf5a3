package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"haxeboot/internal/artifact"
)

// Locator resolves artifacts, local repository first.
type Locator interface {
	Resolve(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error)
}

// RepositoryFetcher is the default Fetcher: it resolves each artifact through
// the repositories and copies it to the requested file.
type RepositoryFetcher struct {
	Locator Locator
}

// NewRepositoryFetcher returns a Fetcher backed by l.
func NewRepositoryFetcher(l Locator) *RepositoryFetcher {
	return &RepositoryFetcher{Locator: l}
}

func (f *RepositoryFetcher) Fetch(ctx context.Context, downloads []*Download) {
	for _, d := range downloads {
		if err := f.fetchOne(ctx, d); err != nil {
			d.Err = &TransferError{Artifact: d.Artifact, Err: err}
		}
	}
}

func (f *RepositoryFetcher) fetchOne(ctx context.Context, d *Download) error {
	res, found, err := f.Locator.Resolve(ctx, d.Artifact)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if d.File == "" {
		d.File = res.File
		return nil
	}
	if sameFile(res.File, d.File) {
		return nil
	}
	return copyFile(res.File, d.File)
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return dest.Close()
}
