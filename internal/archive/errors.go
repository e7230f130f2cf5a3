package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrUnpack matches every UnpackError.
	ErrUnpack = errors.New("unpack failed")
	// ErrEmptyArchive reports an archive without a top-level entry.
	ErrEmptyArchive = errors.New("archive has no entries")
	// ErrUnsupportedFormat reports an archive whose name matches no extractor.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrUnsafePath reports an entry that would land outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
)

// UnpackError wraps any failure to extract or promote an archive.
type UnpackError struct {
	Archive string
	Dest    string
	Err     error
}

func (e *UnpackError) Error() string {
	return fmt.Sprintf("unpack %s into %s: %v", e.Archive, e.Dest, e.Err)
}

func (e *UnpackError) Unwrap() error { return e.Err }

func (e *UnpackError) Is(target error) bool { return target == ErrUnpack }
