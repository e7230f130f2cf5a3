package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	lockPollInterval = 100 * time.Millisecond
	// LockStaleAfter is the age after which an install lock is taken over
	// even when its holder cannot be checked. Unpacking an SDK takes seconds.
	LockStaleAfter = 10 * time.Minute
)

// installLock is the owner record written into <home>/<tool>.lock.
type installLock struct {
	PID  int
	Host string
}

func lockPath(home, tool string) string {
	return filepath.Join(home, tool+".lock")
}

// acquireInstallLock serializes unpacking of one tool across processes
// sharing the same toolchain home. A lock left by a process that died, or one
// older than LockStaleAfter, is removed and taken over.
func acquireInstallLock(ctx context.Context, home, tool string, logger *log.Logger) (func(), error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("prepare toolchain home: %w", err)
	}

	path := lockPath(home, tool)
	host, _ := os.Hostname()
	owner := installLock{PID: os.Getpid(), Host: host}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, writeErr := fmt.Fprintf(f, "%d %s\n", owner.PID, owner.Host)
			closeErr := f.Close()
			if err := errors.Join(writeErr, closeErr); err != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock: %w", err)
			}
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}

		if reason, stale := staleLock(path, host, time.Now()); stale {
			logger.Warn("removing stale install lock", "lock", path, "reason", reason)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("remove stale lock: %w", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// staleLock reports whether the lock at path can be taken over. A lock
// written on this host by a process that no longer exists is stale at once;
// otherwise only age counts.
func staleLock(path, host string, now time.Time) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if age := now.Sub(info.ModTime()); age > LockStaleAfter {
		return fmt.Sprintf("held for %s", age.Round(time.Second)), true
	}

	holder, ok := readLock(path)
	if !ok || holder.Host != host || holder.PID == os.Getpid() {
		return "", false
	}
	if !processAlive(holder.PID) {
		return fmt.Sprintf("holder pid %d exited", holder.PID), true
	}
	return "", false
}

func readLock(path string) (installLock, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return installLock{}, false
	}
	var lock installLock
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return installLock{}, false
	}
	if _, err := fmt.Sscan(fields[0], &lock.PID); err != nil || lock.PID <= 0 {
		return installLock{}, false
	}
	if len(fields) > 1 {
		lock.Host = fields[1]
	}
	return lock, true
}
