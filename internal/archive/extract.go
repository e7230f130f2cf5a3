package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Format identifies an archive encoding.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	FormatTar   Format = "tar"
)

// DetectFormat infers the archive format from the file name.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
}

func extract(ctx context.Context, format Format, archivePath, dest string) error {
	if format == FormatZip {
		return extractZip(ctx, archivePath, dest)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var stream io.Reader = file
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		stream = gz
	case FormatTarXz:
		xzr, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("xz reader: %w", err)
		}
		stream = xzr
	case FormatTar:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return untarStream(ctx, stream, dest)
}

// safeJoin resolves an archive entry name under root, rejecting traversal.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// physicalTarget maps an entry onto disk the way the kernel will see it:
// the deepest existing ancestor is resolved through symlinks created by
// earlier entries and must still lie under root. The entry itself is not
// followed.
func physicalTarget(root, name string) (string, error) {
	target, err := safeJoin(root, name)
	if err != nil {
		return "", err
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve staging dir: %w", err)
	}
	if target == filepath.Clean(root) {
		return realRoot, nil
	}

	existing := filepath.Dir(target)
	var missing []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("inspect %s: %w", existing, err)
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
		existing = filepath.Dir(existing)
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil || !within(realRoot, resolved) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	parts := append([]string{resolved}, missing...)
	return filepath.Join(append(parts, filepath.Base(target))...), nil
}

// checkLinkTarget rejects symlinks pointing outside realRoot once their
// directory is resolved. A ".." after a named component is refused because
// that component may itself be a link.
func checkLinkTarget(realRoot, linkDir, linkname string) error {
	if linkname == "" || filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return ErrUnsafePath
	}
	named := false
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch part {
		case "", ".":
		case "..":
			if named {
				return ErrUnsafePath
			}
		default:
			named = true
		}
	}
	if !within(realRoot, filepath.Join(linkDir, filepath.FromSlash(linkname))) {
		return ErrUnsafePath
	}
	return nil
}

// clearLink removes a symlink left at target by an earlier entry so a write
// does not follow it.
func clearLink(target string) error {
	info, err := os.Lstat(target)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}

func extractZip(ctx context.Context, archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := physicalTarget(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		if err := writeZipEntry(file, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare file %s: %w", target, err)
	}
	if err := clearLink(target); err != nil {
		return fmt.Errorf("replace link %s: %w", target, err)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("copy file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func untarStream(ctx context.Context, r io.Reader, dest string) error {
	realRoot, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return fmt.Errorf("resolve staging dir: %w", err)
	}
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		target, err := physicalTarget(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg, tar.TypeRegA:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare file %s: %w", target, err)
			}
			if err := clearLink(target); err != nil {
				return fmt.Errorf("replace link %s: %w", target, err)
			}
			mode := os.FileMode(header.Mode).Perm()
			if mode == 0 {
				mode = 0o644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("write file %s: %w", target, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close file %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(realRoot, filepath.Dir(target), header.Linkname); err != nil {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare link %s: %w", target, err)
			}
			if err := clearLink(target); err != nil {
				return fmt.Errorf("replace link %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create link %s: %w", target, err)
			}
		case tar.TypeLink:
			source, err := physicalTarget(dest, header.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare link %s: %w", target, err)
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("create link %s: %w", target, err)
			}
		default:
			// Device nodes and fifos have no place in a tool distribution.
		}
	}
	return nil
}
