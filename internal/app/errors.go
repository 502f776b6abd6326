package app

import (
	"errors"
	"fmt"
	"strings"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrDocumentNotFound indicates a document was not found.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnsavedChanges is returned when closing a modified document
	// without force.
	ErrUnsavedChanges = errors.New("unsaved changes")

	// ErrShutdownTimeout indicates shutdown timed out.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// InitError reports a component that failed to initialize.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError represents an error that occurred during a document
// operation.
type OperationError struct {
	Op     string // Operation name (e.g., "save", "open", "replace")
	Target string // File path or document id
	Err    error  // Underlying error
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ErrorList collects errors from steps that must all run, such as shutdown.
type ErrorList struct {
	errs []error
}

// Add appends err if non-nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

// Len returns the number of errors.
func (e *ErrorList) Len() int {
	return len(e.errs)
}

// Errors returns a copy of the collected errors.
func (e *ErrorList) Errors() []error {
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

func (e *ErrorList) Error() string {
	switch len(e.errs) {
	case 0:
		return "no errors"
	case 1:
		return e.errs[0].Error()
	}
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.errs
}

// AsError returns nil for an empty list, otherwise the list itself.
func (e *ErrorList) AsError() error {
	if len(e.errs) == 0 {
		return nil
	}
	return e
}
