//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts the child in its own process group and kills the
// whole group on cancellation, so wrappers like `sh -c` or `haxelib run` do
// not leave descendants holding the output pipes.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
