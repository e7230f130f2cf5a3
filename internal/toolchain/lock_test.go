package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"haxeboot/internal/artifact"
)

func writeLock(t *testing.T, home, tool, content string, age time.Duration) string {
	t.Helper()
	path := lockPath(home, tool)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if age > 0 {
		old := time.Now().Add(-age)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func acquireWithin(t *testing.T, home string, d time.Duration) (func(), error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return acquireInstallLock(ctx, home, "haxe", log.New(io.Discard))
}

func TestInstallLockRoundTrip(t *testing.T) {
	home := t.TempDir()
	unlock, err := acquireWithin(t, home, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	holder, ok := readLock(lockPath(home, "haxe"))
	if !ok || holder.PID != os.Getpid() {
		t.Fatalf("lock owner = %+v, %v", holder, ok)
	}
	unlock()
	if _, err := os.Stat(lockPath(home, "haxe")); !os.IsNotExist(err) {
		t.Fatalf("lock left after unlock: %v", err)
	}
}

func TestInstallLockTakesOverDeadHolder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pid probing differs on windows")
	}
	home := t.TempDir()
	host, _ := os.Hostname()
	writeLock(t, home, "haxe", fmt.Sprintf("%d %s\n", math.MaxInt32, host), 0)

	unlock, err := acquireWithin(t, home, 2*time.Second)
	if err != nil {
		t.Fatalf("acquire over dead holder: %v", err)
	}
	unlock()
}

func TestInstallLockTakesOverOldLock(t *testing.T) {
	home := t.TempDir()
	writeLock(t, home, "haxe", "1 build-agent-7\n", 2*LockStaleAfter)

	unlock, err := acquireWithin(t, home, 2*time.Second)
	if err != nil {
		t.Fatalf("acquire over old lock: %v", err)
	}
	unlock()
}

func TestInstallLockWaitsForLiveHolder(t *testing.T) {
	home := t.TempDir()
	host, _ := os.Hostname()
	path := writeLock(t, home, "haxe", fmt.Sprintf("%d %s\n", os.Getpid(), host), 0)

	_, err := acquireWithin(t, home, 300*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("live lock was removed: %v", err)
	}
}

func TestInstallLockKeepsForeignHostLock(t *testing.T) {
	home := t.TempDir()
	path := writeLock(t, home, "haxe", fmt.Sprintf("%d other-host\n", math.MaxInt32), 0)

	if _, err := acquireWithin(t, home, 300*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("foreign lock was removed: %v", err)
	}
}

func TestBootstrapRecoversFromInterruptedInstall(t *testing.T) {
	f := newFixture(t)
	haxe := f.sdk(t, HaxeKey, "1.0", false)
	neko := f.sdk(t, NekoKey, "1.0", false)
	if err := os.MkdirAll(f.tc.Home, 0o755); err != nil {
		t.Fatal(err)
	}
	writeLock(t, f.tc.Home, Haxe, "1 build-agent-7\n", 2*LockStaleAfter)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := f.boot.Run(ctx, Request{Tools: []artifact.Identity{haxe, neko}})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if tool, _ := res.Toolchain.Tool(Haxe); !tool.IsReady() {
		t.Fatal("haxe not ready after taking over the stale lock")
	}
	if _, err := os.Stat(lockPath(f.tc.Home, Haxe)); !os.IsNotExist(err) {
		t.Fatalf("lock left behind: %v", err)
	}
}
