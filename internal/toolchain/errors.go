package toolchain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDependency matches MissingDependencyError.
	ErrMissingDependency = errors.New("missing toolchain dependency")
	// ErrNotInstalled is returned when a tool is queried before it is ready.
	ErrNotInstalled = errors.New("tool not installed")
	// ErrToolFailed matches ToolError.
	ErrToolFailed = errors.New("tool exited with non-zero status")
	// ErrUnknownTool reports a tool name outside the capability table.
	ErrUnknownTool = errors.New("unknown tool")
)

// MissingDependencyError names a mandatory tool artifact that could not be
// resolved locally or remotely.
type MissingDependencyError struct {
	Key string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is required", e.Key)
}

func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }

// ToolError reports a tool that ran but exited with a failure code.
type ToolError struct {
	Tool string
	Code int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
}

func (e *ToolError) Is(target error) bool { return target == ErrToolFailed }
