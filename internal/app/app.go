// Package app wires the keypad components together and manages the
// application lifecycle.
//
// Components are created in dependency order: configuration, logging,
// the file store, session state, the recovery engine and the file
// watcher. File store events fan out to the others so that autosave
// baselines, watched paths and the recent-files list follow the set of
// open documents.
package app

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/keypad/internal/config"
	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/recovery"
	"github.com/dshills/keypad/internal/search"
	"github.com/dshills/keypad/internal/session"
	"github.com/dshills/keypad/internal/watcher"
)

// ConflictFunc is told about a dirty document whose backing file changed
// on disk. It runs on the watcher goroutine.
type ConflictFunc func(doc *filestore.Document, event watcher.Event)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses the default path.
	ConfigPath string

	// Overrides are settings applied over the loaded configuration,
	// keyed by dot-separated path.
	Overrides map[string]any

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// LogOutput receives log output instead of the configured destination.
	LogOutput io.Writer

	// Files are files to open on Start.
	Files []string

	// DisableRecovery turns autosave off regardless of configuration.
	DisableRecovery bool

	// DisableWatcher turns file watching off regardless of configuration.
	DisableWatcher bool

	// Ephemeral leaves the session state untouched: files opened are not
	// added to the recent list and Shutdown does not record the session.
	Ephemeral bool

	// ConfirmRestore decides whether a pending snapshot is restored at
	// startup. Nil restores every snapshot.
	ConfirmRestore func(snap *recovery.Snapshot) bool

	// Decide resolves a save against a file changed on disk. Nil cancels
	// such saves.
	Decide filestore.DecideFunc

	// OnConflict is notified of external changes to dirty documents.
	OnConflict ConflictFunc
}

// Application is the central coordinator for keypad components.
type Application struct {
	config    *config.Config
	logger    *slog.Logger
	logCloser io.Closer

	files    *filestore.FileStore
	session  *session.Tracker
	recovery *recovery.Engine // nil when disabled
	watcher  *watcher.Watcher // nil when disabled

	searchOpts search.Options
	metrics    *Metrics

	// watched maps documents to the path registered with the watcher.
	watchMu sync.Mutex
	watched map[filestore.DocumentID]string

	running  atomic.Bool
	shutdown atomic.Bool

	opts Options
}

// New creates an Application with all components initialized but not
// started.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		watched: make(map[filestore.DocumentID]string),
		metrics: NewMetrics(),
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the resolved configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Files returns the document store.
func (app *Application) Files() *filestore.FileStore {
	return app.files
}

// Session returns the session tracker.
func (app *Application) Session() *session.Tracker {
	return app.session
}

// Recovery returns the recovery engine, or nil when autosave is disabled.
func (app *Application) Recovery() *recovery.Engine {
	return app.recovery
}

// Watcher returns the file watcher, or nil when watching is disabled.
func (app *Application) Watcher() *watcher.Watcher {
	return app.watcher
}

// SearchOptions returns the configured default search options.
func (app *Application) SearchOptions() search.Options {
	return app.searchOpts
}

// IsRunning reports whether Start has completed and Shutdown has not.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
