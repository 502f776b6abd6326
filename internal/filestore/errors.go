package filestore

import (
	"errors"
	"fmt"
)

// Standard errors returned by the filestore package.
var (
	// ErrNotFound indicates a file was not found.
	ErrNotFound = errors.New("not found")

	// ErrIsDirectory indicates the path is a directory, not a file.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrFileTooLarge indicates the file exceeds the maximum size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDocumentNotOpen indicates the document is not open.
	ErrDocumentNotOpen = errors.New("document not open")

	// ErrAlreadyOpen indicates another open document is backed by the path.
	ErrAlreadyOpen = errors.New("already open")

	// ErrDocumentDirty indicates the document has unsaved changes.
	ErrDocumentDirty = errors.New("document has unsaved changes")

	// ErrNilDocument indicates a nil document was passed.
	ErrNilDocument = errors.New("nil document")

	// ErrNilReader indicates a nil byte stream was passed to a load.
	ErrNilReader = errors.New("nil reader")

	// ErrNilWriter indicates a nil byte stream was passed to a save.
	ErrNilWriter = errors.New("nil writer")

	// ErrEmptyPath indicates a save was requested without a target path.
	ErrEmptyPath = errors.New("empty path")

	// ErrSaveCancelled indicates the save was abandoned after an external
	// change was detected.
	ErrSaveCancelled = errors.New("save cancelled")

	// ErrInvalidEditRange is returned when ApplyEdit receives invalid offsets.
	ErrInvalidEditRange = errors.New("invalid edit range")
)

// PathError represents an error associated with a file path.
type PathError struct {
	Op   string // Operation that failed (load, save, reload, stat)
	Path string // File path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a file was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCancelled returns true if the error indicates a cancelled save.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrSaveCancelled)
}
