package repository

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"haxeboot/internal/artifact"
)

// Local is a repository on disk using the group/name/version layout.
type Local struct {
	Root string
}

// RelativePath renders the slash-separated location of id inside a
// repository.
func RelativePath(id artifact.Identity) string {
	group := strings.ReplaceAll(id.Group, ".", "/")
	return path.Join(group, id.Name, id.Version, id.FileName())
}

// Path returns where id lives in the local repository.
func (l Local) Path(id artifact.Identity) string {
	return filepath.Join(l.Root, filepath.FromSlash(RelativePath(id)))
}

// Install copies file into the local repository under id.
func (l Local) Install(id artifact.Identity, file string) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	dest := l.Path(id)
	if err := copyFile(file, dest); err != nil {
		return "", fmt.Errorf("install %s: %w", id, err)
	}
	return dest, nil
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

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".install-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, source); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
