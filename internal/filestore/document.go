// Package filestore provides open document management for the editor core.
//
// A Document holds one file's LF-normalized text together with its on-disk
// format, dirty flag and change version. The package loads and saves
// documents through the codec pipeline, writes files atomically, detects
// external modification and tracks the working set of open documents.
package filestore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keypad/internal/codec"
)

// DocumentID identifies a document for the lifetime of the process.
type DocumentID string

// NewDocumentID returns a fresh random document identifier.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.NewString())
}

// ParseDocumentID validates s as a document identifier.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return DocumentID(u.String()), nil
}

// String returns the identifier.
func (id DocumentID) String() string {
	return string(id)
}

// Document represents an open file in the editor.
// All accessors are safe for concurrent use; the recovery loop reads
// documents while the owner goroutine edits them.
type Document struct {
	mu sync.RWMutex

	id   DocumentID
	path string

	// text is always LF-normalized.
	text   string
	format codec.Format

	dirty   bool
	version int64

	// diskModTime is the backing file's write time as last observed.
	// Zero means not yet observed.
	diskModTime time.Time

	openedAt   time.Time
	modifiedAt time.Time
}

// DocumentState is a point-in-time copy of a document's fields.
type DocumentState struct {
	ID          DocumentID
	Path        string
	Text        string
	Format      codec.Format
	Dirty       bool
	Version     int64
	DiskModTime time.Time
}

// NewDocument creates an empty, clean, unsaved document.
func NewDocument() *Document {
	now := time.Now()
	return &Document{
		id:         NewDocumentID(),
		format:     codec.DefaultFormat(),
		openedAt:   now,
		modifiedAt: now,
	}
}

// newLoadedDocument creates a clean document from a codec result.
func newLoadedDocument(path string, res codec.Result) *Document {
	doc := NewDocument()
	doc.path = path
	doc.text = res.Text
	doc.format = normalizeFormat(res.Format)
	return doc
}

// RestoreDocument rebuilds a dirty document under an existing identity,
// as recovered from a crash snapshot.
func RestoreDocument(state DocumentState) *Document {
	now := time.Now()
	id := state.ID
	if id == "" {
		id = NewDocumentID()
	}
	return &Document{
		id:          id,
		path:        state.Path,
		text:        codec.NormalizeToLF(state.Text),
		format:      normalizeFormat(state.Format),
		dirty:       true,
		version:     state.Version,
		diskModTime: state.DiskModTime,
		openedAt:    now,
		modifiedAt:  now,
	}
}

func normalizeFormat(f codec.Format) codec.Format {
	if f.Encoding == "" {
		f.Encoding = codec.EncodingUTF8
	}
	if f.LineEnding == "" {
		f.LineEnding = codec.LineEndingLF
	}
	return f
}

// ID returns the document identifier.
func (d *Document) ID() DocumentID {
	return d.id
}

// Path returns the backing file path, or "" for an unsaved document.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Text returns the LF-normalized content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Format returns the on-disk format.
func (d *Document) Format() codec.Format {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format
}

// IsDirty returns true if the document has unsaved changes.
func (d *Document) IsDirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty
}

// Version returns the change version.
func (d *Document) Version() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// DiskModTime returns the recorded write time of the backing file.
func (d *Document) DiskModTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.diskModTime
}

// ModifiedAt returns when the document was last changed in the editor.
func (d *Document) ModifiedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modifiedAt
}

// State returns a consistent copy of the document's fields.
func (d *Document) State() DocumentState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DocumentState{
		ID:          d.id,
		Path:        d.path,
		Text:        d.text,
		Format:      d.format,
		Dirty:       d.dirty,
		Version:     d.version,
		DiskModTime: d.diskModTime,
	}
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return codec.CountLines(d.text)
}

// Len returns the size of the document text in bytes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// SetText replaces the document text.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = codec.NormalizeToLF(text)
	d.touch()
}

// ApplyEdit replaces the byte range [start, end) with newText.
// Returns ErrInvalidEditRange if offsets are out of bounds.
func (d *Document) ApplyEdit(start, end int, newText string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if start < 0 || end < start || end > len(d.text) {
		return ErrInvalidEditRange
	}

	var b strings.Builder
	b.Grow(start + len(newText) + len(d.text) - end)
	b.WriteString(d.text[:start])
	b.WriteString(newText)
	b.WriteString(d.text[end:])

	// A CR at the seam ("x\r" + "\ny") must fold into one break.
	d.text = codec.NormalizeToLF(b.String())
	d.touch()
	return nil
}

// SetEncoding changes the encoding used on save.
func (d *Document) SetEncoding(enc codec.Encoding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.format.Encoding = codec.ParseEncoding(string(enc))
	d.touch()
}

// SetBOM changes whether a byte order mark is written on save.
func (d *Document) SetBOM(hasBOM bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.format.HasBOM = hasBOM
	d.touch()
}

// SetLineEnding changes the line ending applied on save.
func (d *Document) SetLineEnding(le codec.LineEnding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.format.LineEnding = le
	d.touch()
}

// MarkSaved clears the dirty flag. The change version is kept.
func (d *Document) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = false
}

// SetDiskModTime records the backing file's write time.
func (d *Document) SetDiskModTime(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diskModTime = t
}

// HasExternalChanges checks if the file has been modified externally.
func (d *Document) HasExternalChanges(currentDiskModTime time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !currentDiskModTime.Equal(d.diskModTime)
}

// touch records a content-affecting mutation. Caller holds d.mu.
func (d *Document) touch() {
	d.version++
	d.dirty = true
	d.modifiedAt = time.Now()
}

// markSavedAt records a successful save of version to path. An edit made
// while the save was in flight leaves the document dirty.
func (d *Document) markSavedAt(path string, modTime time.Time, version int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path = path
	d.diskModTime = modTime
	if d.version == version {
		d.dirty = false
	}
}

// markSavedVersion clears the dirty flag if no edit followed version.
func (d *Document) markSavedVersion(version int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.version == version {
		d.dirty = false
	}
}

// reset replaces content and format after a load from disk.
// The version still advances so observers see a new state.
func (d *Document) reset(path string, res codec.Result, modTime time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if path != "" {
		d.path = path
	}
	d.text = res.Text
	d.format = normalizeFormat(res.Format)
	d.version++
	d.dirty = false
	if !modTime.IsZero() {
		d.diskModTime = modTime
	}
	d.modifiedAt = time.Now()
}
