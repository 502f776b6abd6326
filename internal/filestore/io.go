package filestore

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/keypad/internal/codec"
)

// Load decodes a byte stream into a new clean document.
// path is optional and becomes the document's backing path.
func Load(r io.Reader, path string) (*Document, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &PathError{Op: "load", Path: path, Err: err}
	}

	return newLoadedDocument(path, codec.Load(data)), nil
}

// Reload re-decodes a byte stream into an existing document, keeping its
// identity. In-memory edits are discarded and the dirty flag cleared.
// A non-empty path replaces the backing path.
func Reload(doc *Document, r io.Reader, path string) error {
	if doc == nil {
		return ErrNilDocument
	}
	if r == nil {
		return ErrNilReader
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return &PathError{Op: "reload", Path: path, Err: err}
	}

	doc.reset(path, codec.Load(data), doc.DiskModTime())
	return nil
}

// Save encodes the document and writes it to w, then marks it saved.
func Save(doc *Document, w io.Writer, opts codec.SaveOptions) error {
	if doc == nil {
		return ErrNilDocument
	}
	if w == nil {
		return ErrNilWriter
	}

	state := doc.State()
	data, err := codec.Save(state.Text, state.Format, opts)
	if err != nil {
		return &PathError{Op: "save", Path: state.Path, Err: err}
	}

	if _, err := w.Write(data); err != nil {
		return &PathError{Op: "save", Path: state.Path, Err: err}
	}

	doc.markSavedVersion(state.Version)
	return nil
}

// LoadFile opens path and loads it into a new document, recording the
// file's write time as the baseline for external-change checks.
// maxSize limits the file size; zero means unlimited.
func LoadFile(path string, maxSize int64) (*Document, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &PathError{Op: "load", Path: path, Err: err}
	}

	data, info, err := readFile(absPath, maxSize)
	if err != nil {
		return nil, &PathError{Op: "load", Path: path, Err: err}
	}

	doc := newLoadedDocument(absPath, codec.Load(data))
	doc.diskModTime = info.ModTime().UTC()
	return doc, nil
}

// ReloadFile re-reads the document's backing file, discarding edits.
func ReloadFile(doc *Document, maxSize int64) error {
	if doc == nil {
		return ErrNilDocument
	}
	path := doc.Path()
	if path == "" {
		return ErrEmptyPath
	}

	data, info, err := readFile(path, maxSize)
	if err != nil {
		return &PathError{Op: "reload", Path: path, Err: err}
	}

	doc.reset(path, codec.Load(data), info.ModTime().UTC())
	return nil
}

// readFile stats and reads a regular file.
func readFile(path string, maxSize int64) ([]byte, fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.Join(ErrNotFound, err)
		}
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, ErrIsDirectory
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}
