package filestore

import (
	"errors"
	"io/fs"
	"os"
)

// ChangeStatus is the outcome of an external-change check.
type ChangeStatus int

const (
	// ChangeProceed means the save may overwrite the file.
	ChangeProceed ChangeStatus = iota

	// ChangeNeedsDecision means the file changed on disk since it was last
	// observed and the user must choose how to continue.
	ChangeNeedsDecision
)

// String returns the status name.
func (s ChangeStatus) String() string {
	if s == ChangeNeedsDecision {
		return "needs-decision"
	}
	return "proceed"
}

// Decision is the user's answer to an external change.
type Decision int

const (
	// DecisionCancel abandons the save.
	DecisionCancel Decision = iota

	// DecisionReload discards in-memory edits and reloads from disk.
	DecisionReload

	// DecisionOverwrite saves anyway, losing the external edit.
	DecisionOverwrite
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionReload:
		return "reload"
	case DecisionOverwrite:
		return "overwrite"
	default:
		return "cancel"
	}
}

// DecideFunc is supplied by the UI collaborator to resolve a conflict.
type DecideFunc func(doc *Document) Decision

// CheckExternalChange compares the document's recorded write time with the
// backing file's current write time.
//
// A document without a backing file never conflicts. When no write time
// has been recorded yet, the current one is stamped as the baseline. A
// backing file that no longer exists does not conflict either; saving
// recreates it.
func CheckExternalChange(doc *Document) (ChangeStatus, error) {
	if doc == nil {
		return ChangeProceed, ErrNilDocument
	}

	path := doc.Path()
	if path == "" {
		return ChangeProceed, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ChangeProceed, nil
		}
		return ChangeProceed, &PathError{Op: "stat", Path: path, Err: err}
	}
	current := info.ModTime().UTC()

	if doc.DiskModTime().IsZero() {
		doc.SetDiskModTime(current)
		return ChangeProceed, nil
	}

	if doc.HasExternalChanges(current) {
		return ChangeNeedsDecision, nil
	}
	return ChangeProceed, nil
}
