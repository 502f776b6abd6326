package app

import (
	"context"
	"time"

	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/search"
)

// Open opens path, or returns the already open document backed by it.
func (app *Application) Open(ctx context.Context, path string) (*filestore.Document, error) {
	doc, err := app.files.Open(ctx, path)
	if err != nil {
		return nil, &OperationError{Op: "open", Target: path, Err: err}
	}
	return doc, nil
}

// NewDocument creates an empty unsaved document with the configured format.
func (app *Application) NewDocument() *filestore.Document {
	return app.files.New()
}

// Document returns an open document by id.
func (app *Application) Document(id filestore.DocumentID) (*filestore.Document, error) {
	doc, ok := app.files.Get(id)
	if !ok {
		return nil, &OperationError{Op: "lookup", Target: id.String(), Err: ErrDocumentNotFound}
	}
	return doc, nil
}

// Save writes a document to its backing file. If the file changed on disk
// since it was loaded, Options.Decide chooses how to proceed.
func (app *Application) Save(ctx context.Context, id filestore.DocumentID) error {
	start := time.Now()
	err := app.files.SaveChecked(ctx, id, app.opts.Decide)
	app.metrics.RecordSave(time.Since(start), err)
	if err != nil {
		return &OperationError{Op: "save", Target: id.String(), Err: err}
	}
	return nil
}

// SaveAs writes a document to path, which becomes its backing file.
func (app *Application) SaveAs(ctx context.Context, id filestore.DocumentID, path string) error {
	start := time.Now()
	err := app.files.SaveAs(ctx, id, path)
	app.metrics.RecordSave(time.Since(start), err)
	if err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	return nil
}

// SaveAll saves every dirty document that has a backing file.
func (app *Application) SaveAll(ctx context.Context) error {
	var errs ErrorList
	for _, doc := range app.files.DirtyDocuments() {
		if doc.Path() == "" {
			continue
		}
		errs.Add(app.Save(ctx, doc.ID()))
	}
	return errs.AsError()
}

// Close closes a document. Closing a dirty document without force fails
// with ErrUnsavedChanges.
func (app *Application) Close(ctx context.Context, id filestore.DocumentID, force bool) error {
	doc, err := app.Document(id)
	if err != nil {
		return err
	}
	if !force && doc.IsDirty() {
		return &OperationError{Op: "close", Target: displayName(doc), Err: ErrUnsavedChanges}
	}
	if err := app.files.Close(ctx, id, true); err != nil {
		return &OperationError{Op: "close", Target: id.String(), Err: err}
	}
	return nil
}

// Find searches a document from cursor in the given direction.
func (app *Application) Find(id filestore.DocumentID, query string, cursor int, dir search.Direction, opts search.Options) (search.Match, bool, error) {
	doc, err := app.Document(id)
	if err != nil {
		return search.Match{}, false, err
	}
	if err := search.Validate(query, opts); err != nil {
		return search.Match{}, false, &OperationError{Op: "find", Target: query, Err: err}
	}
	m, ok := search.Find(doc.Text(), query, cursor, dir, opts)
	return m, ok, nil
}

// ReplaceOne replaces the selection when it matches query, then finds the
// next match. The document is edited only when a replacement happened.
func (app *Application) ReplaceOne(id filestore.DocumentID, query, replacement string, sel search.Selection, opts search.Options) (search.Result, error) {
	doc, err := app.Document(id)
	if err != nil {
		return search.Result{}, err
	}
	if err := search.Validate(query, opts); err != nil {
		return search.Result{}, &OperationError{Op: "replace", Target: query, Err: err}
	}
	res := search.ReplaceOne(doc.Text(), query, replacement, sel, opts)
	if res.Replaced {
		doc.SetText(res.Text)
	}
	return res, nil
}

// ReplaceAll replaces every match in a document and returns the count.
func (app *Application) ReplaceAll(id filestore.DocumentID, query, replacement string, opts search.Options) (int, error) {
	doc, err := app.Document(id)
	if err != nil {
		return 0, err
	}
	if err := search.Validate(query, opts); err != nil {
		return 0, &OperationError{Op: "replace", Target: query, Err: err}
	}
	text, n := search.ReplaceAll(doc.Text(), query, replacement, opts)
	if n > 0 {
		doc.SetText(text)
	}
	return n, nil
}

func displayName(doc *filestore.Document) string {
	if p := doc.Path(); p != "" {
		return p
	}
	return doc.ID().String()
}
