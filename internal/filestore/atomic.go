package filestore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/keypad/internal/codec"
)

// DefaultFileMode is the permission given to newly created files.
const DefaultFileMode fs.FileMode = 0o644

// WriteFileAtomic writes data to path so that readers never observe a
// partially written file. The data goes to a temp file in the target's
// directory, which then replaces the target. An existing target's mode
// (and ownership, where the platform allows) carries over to the new file.
//
// On failure the temp file is removed; a failure to remove it is ignored
// so the original error is the one returned.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	closed := false

	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err = tmp.Write(data); err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}

	info, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if info.IsDir() {
			err = &PathError{Op: "save", Path: path, Err: ErrIsDirectory}
			return err
		}
		if err = preserveMetadata(tmpPath, path, info); err != nil {
			return &PathError{Op: "save", Path: path, Err: err}
		}
		if err = replaceFile(tmpPath, path); err != nil {
			return &PathError{Op: "save", Path: path, Err: err}
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err = os.Chmod(tmpPath, perm); err != nil {
			return &PathError{Op: "save", Path: path, Err: err}
		}
		if err = os.Rename(tmpPath, path); err != nil {
			return &PathError{Op: "save", Path: path, Err: err}
		}
	default:
		err = &PathError{Op: "save", Path: path, Err: statErr}
		return err
	}

	// The rename is already visible; a failed directory sync only weakens
	// durability across power loss.
	_ = syncDir(dir)
	return nil
}

// SaveToFile encodes doc and writes it atomically to path. An empty path
// means the document's own backing path. On success the document takes
// path as its backing path, records the file's write time and is marked
// saved.
func SaveToFile(doc *Document, path string, opts codec.SaveOptions) error {
	if doc == nil {
		return ErrNilDocument
	}

	state := doc.State()
	if path == "" {
		path = state.Path
	}
	if path == "" {
		return ErrEmptyPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return &PathError{Op: "save", Path: path, Err: err}
	}

	data, err := codec.Save(state.Text, state.Format, opts)
	if err != nil {
		return &PathError{Op: "save", Path: absPath, Err: err}
	}

	if err := WriteFileAtomic(absPath, data, DefaultFileMode); err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return &PathError{Op: "stat", Path: absPath, Err: err}
	}

	doc.markSavedAt(absPath, info.ModTime().UTC(), state.Version)
	return nil
}
