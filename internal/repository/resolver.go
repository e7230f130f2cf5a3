package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"haxeboot/internal/artifact"
)

// ErrNotFound reports an artifact that no repository could supply.
var ErrNotFound = errors.New("artifact not found")

const userAgent = "haxeboot/1.0"

// Resolver locates artifacts in the local repository and downloads missing
// ones from remotes into it.
type Resolver struct {
	Local   Local
	Remotes []Remote
	Client  *http.Client
	Logger  *log.Logger
}

// NewResolver returns a Resolver backed by the local repository at root.
func NewResolver(root string, remotes []Remote, logger *log.Logger) *Resolver {
	return &Resolver{
		Local:   Local{Root: root},
		Remotes: remotes,
		Client:  http.DefaultClient,
		Logger:  logger,
	}
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// ResolveLocal looks id up without touching the network. Absence is reported
// through the boolean, not as an error.
func (r *Resolver) ResolveLocal(_ context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	if err := id.Validate(); err != nil {
		return artifact.Resolved{}, false, err
	}
	file := r.Local.Path(id)
	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifact.Resolved{}, false, nil
		}
		return artifact.Resolved{}, false, fmt.Errorf("stat %s: %w", file, err)
	}
	if info.IsDir() {
		return artifact.Resolved{}, false, fmt.Errorf("%s is a directory", file)
	}
	return artifact.Resolved{Identity: id, File: file, Local: true}, true, nil
}

// ResolveRemote downloads id from the first remote that has it. A 404 from
// every remote is reported as not found.
func (r *Resolver) ResolveRemote(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	if err := id.Validate(); err != nil {
		return artifact.Resolved{}, false, err
	}
	dest := r.Local.Path(id)
	rel := RelativePath(id)

	var errs []error
	for _, remote := range r.Remotes {
		if !remote.Serves(id.Version) {
			continue
		}
		url := strings.TrimRight(remote.URL, "/") + "/" + rel
		found, err := r.download(ctx, dest, url)
		if err != nil {
			r.logger().Warn("download failed", "repository", remote.ID, "artifact", id.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", remote.ID, err))
			continue
		}
		if found {
			r.logger().Info("downloaded", "repository", remote.ID, "artifact", id.String())
			return artifact.Resolved{Identity: id, File: dest}, true, nil
		}
	}
	if len(errs) > 0 {
		return artifact.Resolved{}, false, errors.Join(errs...)
	}
	return artifact.Resolved{}, false, nil
}

// Resolve tries the local repository, then the remotes.
func (r *Resolver) Resolve(ctx context.Context, id artifact.Identity) (artifact.Resolved, bool, error) {
	res, ok, err := r.ResolveLocal(ctx, id)
	if err != nil || ok {
		return res, ok, err
	}
	return r.ResolveRemote(ctx, id)
}

func (r *Resolver) download(ctx context.Context, dest, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("prepare download destination: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return false, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return false, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return false, fmt.Errorf("finalize download: %w", err)
	}
	return true, nil
}
