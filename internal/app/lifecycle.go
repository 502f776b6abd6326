package app

import (
	"context"

	"github.com/dshills/keypad/internal/recovery"
)

// Start restores pending recovery snapshots, opens the initial files and
// starts the autosave loop. Snapshots are restored before any file is
// opened so a recovered document takes the place of its backing file.
//
// Files that fail to open are logged and reported in the returned error;
// the application keeps running either way.
func (app *Application) Start(ctx context.Context) error {
	if app.shutdown.Load() {
		return ErrNotRunning
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	restored, err := app.RestoreSnapshots()
	if err != nil {
		app.logger.Warn("restoring snapshots failed", "error", err)
	}

	var errs ErrorList
	for _, path := range app.opts.Files {
		if _, err := app.Open(ctx, path); err != nil {
			app.logger.Warn("opening file failed", "path", path, "error", err)
			errs.Add(err)
		}
	}

	if app.recovery != nil {
		if err := app.recovery.Start(app.files.Documents); err != nil {
			errs.Add(&InitError{Component: "recovery", Err: err})
		}
	}

	app.logger.Info("started",
		"documents", app.files.Count(),
		"restored", restored,
		"recovery", app.recovery != nil,
		"watching", app.watcher != nil,
	)
	return errs.AsError()
}

// RestoreSnapshots offers each pending snapshot to Options.ConfirmRestore
// and adds accepted ones to the file store as dirty documents. Declined
// and unreadable snapshots are deleted. It must run before the autosave
// loop starts and returns the number of documents restored.
func (app *Application) RestoreSnapshots() (int, error) {
	if app.recovery == nil {
		return 0, nil
	}
	return app.recovery.Restore(func(snap *recovery.Snapshot) bool {
		if app.opts.ConfirmRestore != nil && !app.opts.ConfirmRestore(snap) {
			app.logger.Info("discarding recovery snapshot", "id", snap.DocumentID, "path", snap.FilePath)
			return false
		}
		app.files.Add(snap.ToDocument())
		return true
	})
}

// Shutdown stops autosave, takes a last snapshot of dirty documents,
// records the open files as the session to restore (unless Ephemeral)
// and closes the watcher. Dirty documents are not saved; their snapshots
// stay on disk and are offered again on the next start.
func (app *Application) Shutdown(ctx context.Context) error {
	if !app.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	app.running.Store(false)

	var errs ErrorList
	if app.recovery != nil {
		app.recovery.Stop()
		select {
		case <-app.recovery.Done():
			app.recovery.Tick(ctx, app.files.Documents())
		case <-ctx.Done():
			errs.Add(ErrShutdownTimeout)
		}
	}

	if !app.opts.Ephemeral {
		if err := app.session.SetOpen(app.files.Paths()); err != nil {
			errs.Add(&OperationError{Op: "write session", Target: app.session.Path(), Err: err})
		}
	}

	if app.watcher != nil {
		errs.Add(app.watcher.Close())
	}

	stats := app.files.GetStats()
	app.logger.Info("shutdown complete",
		"documents", stats.OpenCount,
		"dirty", stats.DirtyCount,
		"bytes", stats.TotalSize,
	)
	closeQuietly(app.logCloser)
	return errs.AsError()
}
