package app

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/watcher"
)

// wire subscribes the recovery engine, watcher and session tracker to
// file store events.
func (app *Application) wire() {
	app.files.OnOpen(app.onDocumentOpened)
	app.files.OnSave(app.onDocumentSaved)
	app.files.OnReload(app.onDocumentReloaded)
	app.files.OnClose(app.onDocumentClosed)
}

func (app *Application) onDocumentOpened(doc *filestore.Document) {
	app.metrics.RecordOpen()
	if app.recovery != nil {
		app.recovery.Track(doc)
	}
	app.syncWatch(doc)
	app.touchRecent(doc.Path())
}

func (app *Application) onDocumentSaved(doc *filestore.Document) {
	if app.recovery != nil {
		app.recovery.OnDocumentSaved(doc)
	}
	app.syncWatch(doc)
	app.touchRecent(doc.Path())
}

func (app *Application) onDocumentReloaded(doc *filestore.Document) {
	app.metrics.RecordReload()
	if app.recovery != nil {
		app.recovery.OnDocumentSaved(doc)
	}
}

func (app *Application) onDocumentClosed(doc *filestore.Document) {
	app.metrics.RecordClose()
	if app.recovery != nil {
		app.recovery.OnDocumentClosed(doc)
	}
	app.unwatch(doc.ID())
}

func (app *Application) touchRecent(path string) {
	if path == "" || app.opts.Ephemeral {
		return
	}
	if err := app.session.Touch(path); err != nil {
		app.logger.Debug("recording recent file failed", "path", path, "error", err)
	}
}

// syncWatch points the watcher at doc's current backing path. A save-as
// moves the watch from the old path to the new one.
func (app *Application) syncWatch(doc *filestore.Document) {
	if app.watcher == nil {
		return
	}
	path := doc.Path()

	app.watchMu.Lock()
	old, had := app.watched[doc.ID()]
	if had && old == path {
		app.watchMu.Unlock()
		return
	}
	if path == "" {
		delete(app.watched, doc.ID())
	} else {
		app.watched[doc.ID()] = path
	}
	app.watchMu.Unlock()

	if had {
		if err := app.watcher.Remove(old); err != nil {
			app.logger.Debug("unwatch failed", "path", old, "error", err)
		}
	}
	if path != "" {
		if err := app.watcher.Add(path); err != nil {
			app.logger.Warn("watching file failed", "path", path, "error", err)
		}
	}
}

func (app *Application) unwatch(id filestore.DocumentID) {
	if app.watcher == nil {
		return
	}
	app.watchMu.Lock()
	path, ok := app.watched[id]
	delete(app.watched, id)
	app.watchMu.Unlock()

	if ok {
		if err := app.watcher.Remove(path); err != nil {
			app.logger.Debug("unwatch failed", "path", path, "error", err)
		}
	}
}

// handleFileEvent reacts to a change on disk. Clean documents reload
// silently; dirty ones are reported through OnConflict. Events caused by
// our own saves are filtered out by the write-time comparison.
func (app *Application) handleFileEvent(event watcher.Event) {
	doc, ok := app.files.FindByPath(event.Path)
	if !ok {
		return
	}
	log := app.logger.With("path", event.Path, "op", event.Op)

	if event.Op.Has(watcher.OpRemove) || event.Op.Has(watcher.OpRename) {
		if _, err := os.Stat(event.Path); errors.Is(err, fs.ErrNotExist) {
			log.Info("backing file removed")
			app.reportConflict(doc, event)
			return
		}
	}

	status, err := filestore.CheckExternalChange(doc)
	if err != nil {
		log.Debug("external change check failed", "error", err)
		return
	}
	if status != filestore.ChangeNeedsDecision {
		return
	}

	if !doc.IsDirty() {
		if err := app.files.Reload(context.Background(), doc.ID(), false); err != nil {
			log.Warn("reload after external change failed", "error", err)
			return
		}
		log.Info("reloaded after external change")
		return
	}

	log.Info("external change to modified document")
	app.reportConflict(doc, event)
}

func (app *Application) reportConflict(doc *filestore.Document, event watcher.Event) {
	app.metrics.RecordConflict()
	app.logger.Warn("external change to modified document",
		"path", event.Path, "op", event.Op, "edited", doc.ModifiedAt())
	if app.opts.OnConflict != nil {
		app.opts.OnConflict(doc, event)
	}
}
