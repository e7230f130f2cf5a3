package fetch

import (
	"errors"
	"fmt"

	"haxeboot/internal/artifact"
)

var (
	// ErrTransfer matches every TransferError.
	ErrTransfer = errors.New("artifact transfer failed")
	// ErrNotFound reports an artifact no repository could supply.
	ErrNotFound = errors.New("artifact not found")
)

// TransferError is attached to a Download that could not be completed.
type TransferError struct {
	Artifact artifact.Identity
	// Code is the package-manager exit code, or zero when it did not run.
	Code int
	Err  error
}

func (e *TransferError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("transfer %s: %v", e.Artifact, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("transfer %s: haxelib exited with code %d", e.Artifact, e.Code)
	default:
		return fmt.Sprintf("transfer %s failed", e.Artifact)
	}
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }
