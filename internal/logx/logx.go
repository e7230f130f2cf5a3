package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"haxeboot/internal/paths"
)

// New creates a logger that writes to a timestamped file inside the project's
// logs directory and to console. Debug output is enabled when verbose is set.
// The returned closer should be closed when logging is no longer needed.
func New(p paths.ProjectPaths, console io.Writer, verbose bool) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(p.LogsDir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var out io.Writer = file
	if console != nil {
		out = io.MultiWriter(file, console)
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           level(verbose),
	})
	return logger, file, nil
}

// Console returns a logger that only writes to w, for commands that run
// outside a project.
func Console(w io.Writer, verbose bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{Level: level(verbose)})
}

func level(verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}
