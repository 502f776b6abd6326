package filestore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/dshills/keypad/internal/codec"
)

// FileStore manages the working set of open documents.
// It provides thread-safe access to documents and runs the load, save and
// close flows, notifying registered callbacks after each.
type FileStore struct {
	mu        sync.RWMutex
	documents map[DocumentID]*Document
	order     []DocumentID

	// Configuration
	maxFileSize int64 // Maximum file size to open (0 = unlimited)
	saveOpts    codec.SaveOptions
	newFormat   codec.Format
	logger      *slog.Logger

	// Callbacks
	onOpen   []func(doc *Document)
	onClose  []func(doc *Document)
	onSave   []func(doc *Document)
	onReload []func(doc *Document)
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithMaxFileSize sets the maximum file size.
func WithMaxFileSize(size int64) Option {
	return func(fs *FileStore) {
		fs.maxFileSize = size
	}
}

// WithSaveOptions sets the pre-save transforms.
func WithSaveOptions(opts codec.SaveOptions) Option {
	return func(fs *FileStore) {
		fs.saveOpts = opts
	}
}

// WithDefaultFormat sets the format given to documents created by New.
func WithDefaultFormat(format codec.Format) Option {
	return func(fs *FileStore) {
		fs.newFormat = normalizeFormat(format)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(fs *FileStore) {
		if logger != nil {
			fs.logger = logger
		}
	}
}

// NewFileStore creates a new FileStore.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		documents:   make(map[DocumentID]*Document),
		maxFileSize: 10 * 1024 * 1024, // 10MB default
		newFormat:   codec.DefaultFormat(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New creates an empty unsaved document and adds it to the store.
func (s *FileStore) New() *Document {
	doc := NewDocument()
	doc.format = s.newFormat
	s.Add(doc)
	return doc
}

// Add registers an existing document, such as one restored from a
// recovery snapshot. Adding a document that is already present is a no-op.
func (s *FileStore) Add(doc *Document) {
	if doc == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.documents[doc.ID()]; ok {
		s.mu.Unlock()
		return
	}
	s.documents[doc.ID()] = doc
	s.order = append(s.order, doc.ID())
	handlers := copyHandlers(s.onOpen)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(doc)
	}
}

// Open opens a file and returns its Document.
// If the file is already open, returns the existing Document.
func (s *FileStore) Open(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}

	if doc, ok := s.FindByPath(absPath); ok {
		return doc, nil
	}

	doc, err := LoadFile(absPath, s.maxFileSize)
	if err != nil {
		return nil, err
	}

	// Double-check in case another goroutine opened it
	if existing, ok := s.FindByPath(absPath); ok {
		return existing, nil
	}

	s.logger.Debug("opened document", "id", doc.ID(), "path", absPath,
		"encoding", doc.Format().Encoding, "eol", doc.Format().LineEnding)
	s.Add(doc)
	return doc, nil
}

// Get returns a document by id.
func (s *FileStore) Get(id DocumentID) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return doc, ok
}

// FindByPath returns the open document backed by path.
func (s *FileStore) FindByPath(path string) (*Document, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if doc := s.documents[id]; doc.Path() == absPath {
			return doc, true
		}
	}
	return nil, false
}

// Documents returns the open documents in the order they were added.
// The slice is a point-in-time copy.
func (s *FileStore) Documents() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.documents[id])
	}
	return docs
}

// DirtyDocuments returns all documents with unsaved changes.
func (s *FileStore) DirtyDocuments() []*Document {
	var dirty []*Document
	for _, doc := range s.Documents() {
		if doc.IsDirty() {
			dirty = append(dirty, doc)
		}
	}
	return dirty
}

// Paths returns the backing paths of open documents, skipping unsaved ones.
func (s *FileStore) Paths() []string {
	var paths []string
	for _, doc := range s.Documents() {
		if p := doc.Path(); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Count returns the number of open documents.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Save saves a document to its backing path.
func (s *FileStore) Save(ctx context.Context, id DocumentID) error {
	return s.SaveAs(ctx, id, "")
}

// SaveAs saves a document to path, which becomes its backing path.
// An empty path saves to the current backing path.
func (s *FileStore) SaveAs(ctx context.Context, id DocumentID, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, ok := s.Get(id)
	if !ok {
		return &PathError{Op: "save", Path: path, Err: ErrDocumentNotOpen}
	}

	if path != "" {
		if other, ok := s.FindByPath(path); ok && other != doc {
			return &PathError{Op: "save", Path: path, Err: ErrAlreadyOpen}
		}
	}

	if err := SaveToFile(doc, path, s.saveOpts); err != nil {
		return err
	}
	s.logger.Debug("saved document", "id", id, "path", doc.Path(), "version", doc.Version())

	s.mu.RLock()
	handlers := copyHandlers(s.onSave)
	s.mu.RUnlock()
	for _, handler := range handlers {
		handler(doc)
	}
	return nil
}

// SaveChecked saves a document after checking its backing file for
// external modification. When the file changed, decide chooses between
// cancel, reload and overwrite; a nil decide cancels.
func (s *FileStore) SaveChecked(ctx context.Context, id DocumentID, decide DecideFunc) error {
	doc, ok := s.Get(id)
	if !ok {
		return &PathError{Op: "save", Err: ErrDocumentNotOpen}
	}

	status, err := CheckExternalChange(doc)
	if err != nil {
		return err
	}
	if status == ChangeNeedsDecision {
		decision := DecisionCancel
		if decide != nil {
			decision = decide(doc)
		}
		s.logger.Info("external change detected", "id", id, "path", doc.Path(), "decision", decision)

		switch decision {
		case DecisionReload:
			return s.Reload(ctx, id, true)
		case DecisionOverwrite:
		default:
			return &PathError{Op: "save", Path: doc.Path(), Err: ErrSaveCancelled}
		}
	}

	return s.Save(ctx, id)
}

// Reload reloads a document from disk.
// If the document is dirty and force is false, returns an error.
func (s *FileStore) Reload(ctx context.Context, id DocumentID, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, ok := s.Get(id)
	if !ok {
		return &PathError{Op: "reload", Err: ErrDocumentNotOpen}
	}

	if !force && doc.IsDirty() {
		return &PathError{Op: "reload", Path: doc.Path(), Err: ErrDocumentDirty}
	}

	if err := ReloadFile(doc, s.maxFileSize); err != nil {
		return err
	}

	s.mu.RLock()
	handlers := copyHandlers(s.onReload)
	s.mu.RUnlock()
	for _, handler := range handlers {
		handler(doc)
	}
	return nil
}

// Close removes a document from the store.
// Returns an error if the document has unsaved changes and force is false.
func (s *FileStore) Close(ctx context.Context, id DocumentID, force bool) error {
	s.mu.Lock()
	doc, ok := s.documents[id]
	if !ok {
		s.mu.Unlock()
		return &PathError{Op: "close", Err: ErrDocumentNotOpen}
	}

	if !force && doc.IsDirty() {
		s.mu.Unlock()
		return &PathError{Op: "close", Path: doc.Path(), Err: ErrDocumentDirty}
	}

	delete(s.documents, id)
	s.order = removeID(s.order, id)
	handlers := copyHandlers(s.onClose)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(doc)
	}
	return nil
}

// CloseAll closes all open documents.
// If force is false, returns an error if any document is dirty.
func (s *FileStore) CloseAll(ctx context.Context, force bool) error {
	if !force && len(s.DirtyDocuments()) > 0 {
		return ErrDocumentDirty
	}
	for _, doc := range s.Documents() {
		if err := s.Close(ctx, doc.ID(), true); err != nil {
			return err
		}
	}
	return nil
}

// OnOpen registers a handler called when a document is added.
func (s *FileStore) OnOpen(handler func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = append(s.onOpen, handler)
}

// OnClose registers a handler called when a document is closed.
func (s *FileStore) OnClose(handler func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, handler)
}

// OnSave registers a handler called when a document is saved.
func (s *FileStore) OnSave(handler func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = append(s.onSave, handler)
}

// OnReload registers a handler called when a document is reloaded.
func (s *FileStore) OnReload(handler func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, handler)
}

// Stats returns statistics about the file store.
type Stats struct {
	OpenCount  int
	DirtyCount int
	TotalSize  int64
}

// GetStats returns current file store statistics.
func (s *FileStore) GetStats() Stats {
	docs := s.Documents()
	stats := Stats{OpenCount: len(docs)}
	for _, doc := range docs {
		if doc.IsDirty() {
			stats.DirtyCount++
		}
		stats.TotalSize += int64(doc.Len())
	}
	return stats
}

// copyHandlers copies a handler slice so it can be iterated without the lock.
func copyHandlers[T any](handlers []T) []T {
	out := make([]T, len(handlers))
	copy(out, handlers)
	return out
}

func removeID(ids []DocumentID, id DocumentID) []DocumentID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
