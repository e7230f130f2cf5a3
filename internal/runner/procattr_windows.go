//go:build windows

package runner

import "os/exec"

// killGroupOnCancel keeps the default cancellation, which kills the direct
// child. Pipes still held by descendants are closed after PipeGrace.
func killGroupOnCancel(cmd *exec.Cmd) {}
