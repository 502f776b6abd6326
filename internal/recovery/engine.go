// Package recovery implements crash-recovery autosave.
//
// An Engine periodically snapshots dirty documents into a Store so that
// unsaved edits survive a crash. A change version per document, held in
// Baselines, decides whether a document changed since its last durable
// copy. Snapshot failures are logged and never returned: autosave must
// not interrupt editing.
package recovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/keypad/internal/filestore"
)

// DefaultInterval is the autosave period used when none is configured.
const DefaultInterval = 30 * time.Second

var (
	// ErrStopped is returned when starting an engine that was stopped.
	ErrStopped = errors.New("recovery engine stopped")

	// ErrStarted is returned when a restore pass is attempted after the
	// autosave loop began.
	ErrStarted = errors.New("recovery engine already started")

	// ErrNilProvider is returned when Start is given no document provider.
	ErrNilProvider = errors.New("nil document provider")
)

// SnapshotStore persists snapshots. Store is the file-backed implementation.
type SnapshotStore interface {
	Write(snap *Snapshot) error
	List() ([]Ref, error)
	Load(ref Ref) (*Snapshot, error)
	Delete(id filestore.DocumentID) error
}

// Provider returns a point-in-time list of open documents.
type Provider func() []*filestore.Document

type engineState int

const (
	stateIdle engineState = iota
	stateRunning
	stateStopped
)

// Engine runs the autosave loop.
type Engine struct {
	store     SnapshotStore
	interval  time.Duration
	logger    *slog.Logger
	baselines *Baselines
	now       func() time.Time

	mu     sync.Mutex
	state  engineState
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine writing to store every interval.
// A non-positive interval means DefaultInterval; a nil logger discards.
func New(store SnapshotStore, interval time.Duration, logger *slog.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:     store,
		interval:  interval,
		logger:    logger,
		baselines: NewBaselines(),
		now:       time.Now,
	}
}

// Interval returns the autosave period.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Baselines exposes the tracked versions.
func (e *Engine) Baselines() *Baselines {
	return e.baselines
}

// Start begins the periodic loop. Starting a running engine is a no-op.
// A stopped engine cannot be restarted.
func (e *Engine) Start(provider Provider) error {
	if provider == nil {
		return ErrNilProvider
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = stateRunning

	go e.loop(ctx, provider, e.done)

	e.logger.Debug("recovery loop started", "interval", e.interval)
	return nil
}

func (e *Engine) loop(ctx context.Context, provider Provider, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx, provider())
		}
	}
}

// Stop cancels the loop. It returns without waiting for an in-flight
// snapshot write; use Done to wait for the loop to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateRunning {
		e.cancel()
		e.logger.Debug("recovery loop stopping")
	}
	e.state = stateStopped
}

// Done returns a channel closed when the loop exits. For an engine that
// never started the channel is already closed.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.done
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateRunning
}

// Tick runs one autosave pass over docs and returns the number of
// snapshots written.
func (e *Engine) Tick(ctx context.Context, docs []*filestore.Document) int {
	written := 0
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		if doc == nil {
			continue
		}

		state := doc.State()
		if !state.Dirty {
			e.deleteSnapshot(state.ID)
			e.baselines.Set(state.ID, state.Version)
			continue
		}

		base, ok := e.baselines.Get(state.ID)
		if ok && base == state.Version {
			continue
		}

		if err := e.store.Write(NewSnapshot(state, e.now())); err != nil {
			e.logger.Debug("recovery snapshot failed", "id", state.ID, "error", err)
			continue
		}
		written++

		// A save that completed during the write already advanced the
		// baseline; the snapshot it deleted must stay deleted.
		if !e.baselines.CompareAndSwap(state.ID, base, ok, state.Version) && !doc.IsDirty() {
			e.deleteSnapshot(state.ID)
		}
	}
	return written
}

// Track records doc's current version as its baseline, so an unchanged
// document is not snapshotted. Used when a document is opened or restored.
func (e *Engine) Track(doc *filestore.Document) {
	if doc == nil {
		return
	}
	e.baselines.Set(doc.ID(), doc.Version())
}

// OnDocumentSaved supersedes the recovery copy with the durable save.
func (e *Engine) OnDocumentSaved(doc *filestore.Document) {
	if doc == nil {
		return
	}
	e.baselines.Set(doc.ID(), doc.Version())
	e.deleteSnapshot(doc.ID())
}

// OnDocumentClosed forgets doc and its snapshot.
func (e *Engine) OnDocumentClosed(doc *filestore.Document) {
	if doc == nil {
		return
	}
	e.baselines.Delete(doc.ID())
	e.deleteSnapshot(doc.ID())
}

// ListPendingSnapshots returns the snapshots awaiting recovery.
func (e *Engine) ListPendingSnapshots() []Ref {
	refs, err := e.store.List()
	if err != nil {
		e.logger.Debug("list recovery snapshots failed", "error", err)
		return nil
	}
	return refs
}

// LoadSnapshot reads a snapshot, returning nil if it is missing or corrupt.
func (e *Engine) LoadSnapshot(ref Ref) *Snapshot {
	snap, err := e.store.Load(ref)
	if err != nil {
		e.logger.Debug("load recovery snapshot failed", "id", ref.ID, "error", err)
		return nil
	}
	return snap
}

// DeleteSnapshot discards a snapshot.
func (e *Engine) DeleteSnapshot(ref Ref) {
	e.deleteSnapshot(ref.ID)
}

func (e *Engine) deleteSnapshot(id filestore.DocumentID) {
	if err := e.store.Delete(id); err != nil {
		e.logger.Debug("delete recovery snapshot failed", "id", id, "error", err)
	}
}

// Restore offers every pending snapshot to apply. A snapshot apply accepts
// stays on disk and its version becomes the baseline; one it declines, or
// one that cannot be read, is deleted. Restore must run before Start so
// the loop cannot overwrite a snapshot not yet read. It returns the number
// of snapshots applied.
func (e *Engine) Restore(apply func(snap *Snapshot) bool) (int, error) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != stateIdle {
		return 0, ErrStarted
	}

	restored := 0
	for _, ref := range e.ListPendingSnapshots() {
		snap := e.LoadSnapshot(ref)
		if snap == nil {
			e.deleteSnapshot(ref.ID)
			continue
		}
		if apply != nil && apply(snap) {
			e.baselines.Set(ref.ID, snap.ChangeVersion)
			restored++
			e.logger.Info("restored recovery snapshot", "id", ref.ID, "path", snap.FilePath)
			continue
		}
		e.deleteSnapshot(ref.ID)
	}
	return restored, nil
}
