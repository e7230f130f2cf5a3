package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrExecution matches every ExecutionError.
	ErrExecution = errors.New("execution failed")
	// ErrInterrupted matches an ExecutionError caused by cancellation.
	ErrInterrupted = errors.New("execution interrupted")
)

// ExecutionError reports a process that could not be started or whose wait
// was interrupted. A non-zero exit is not an ExecutionError.
type ExecutionError struct {
	Command     string
	Interrupted bool
	Err         error
}

func (e *ExecutionError) Error() string {
	if e.Interrupted {
		return fmt.Sprintf("%s: interrupted: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool {
	if target == ErrExecution {
		return true
	}
	return e.Interrupted && target == ErrInterrupted
}
