// Package session persists the recent-files list and the set of files
// open at the end of the last session.
package session

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keypad/internal/filestore"
)

// DefaultMaxRecent is the recent-files cap used when none is configured.
const DefaultMaxRecent = 10

const stateVersion = 1

// State is the persisted session file.
type State struct {
	Version     int      `yaml:"version"`
	RecentFiles []string `yaml:"recentFiles"`
	LastSession []string `yaml:"lastSession"`
}

// Load reads the state file at path. A missing file yields an empty state
// and no error. A corrupt file yields an empty state and the decode error.
func Load(path string) (*State, error) {
	state := &State{Version: stateVersion}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return state, err
	}

	var loaded State
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return state, fmt.Errorf("parse session %s: %w", path, err)
	}
	state.RecentFiles = dedupe(loaded.RecentFiles)
	state.LastSession = dedupe(loaded.LastSession)
	return state, nil
}

// Save writes the state to path atomically.
func (s *State) Save(path string) error {
	s.Version = stateVersion
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return filestore.WriteFileAtomic(path, data, 0o600)
}

// AddRecent moves path to the front of the recent list, keeping at most
// max entries. A non-positive max means DefaultMaxRecent.
func (s *State) AddRecent(path string, max int) {
	if path == "" {
		return
	}
	if max <= 0 {
		max = DefaultMaxRecent
	}
	path = filepath.Clean(path)

	recent := make([]string, 0, len(s.RecentFiles)+1)
	recent = append(recent, path)
	for _, p := range s.RecentFiles {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > max {
		recent = recent[:max]
	}
	s.RecentFiles = recent
}

// RemoveRecent drops path from the recent list.
func (s *State) RemoveRecent(path string) {
	path = filepath.Clean(path)
	s.RecentFiles = slices.DeleteFunc(s.RecentFiles, func(p string) bool {
		return p == path
	})
}

// SetLastSession records the files open at shutdown.
func (s *State) SetLastSession(paths []string) {
	s.LastSession = dedupe(paths)
}

func dedupe(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Tracker keeps a State bound to its file and rewrites the file after
// every change.
type Tracker struct {
	mu        sync.Mutex
	path      string
	maxRecent int
	state     *State
	logger    *slog.Logger
}

// NewTracker loads the state at path. A corrupt file is logged and
// replaced by an empty state on the next write.
func NewTracker(path string, maxRecent int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	state, err := Load(path)
	if err != nil {
		logger.Warn("session state unreadable", "path", path, "error", err)
	}
	return &Tracker{
		path:      path,
		maxRecent: maxRecent,
		state:     state,
		logger:    logger,
	}
}

// Path returns the state file path.
func (t *Tracker) Path() string {
	return t.path
}

// Recent returns a copy of the recent-files list, most recent first.
func (t *Tracker) Recent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.state.RecentFiles)
}

// LastSession returns a copy of the last-session file list.
func (t *Tracker) LastSession() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.state.LastSession)
}

// Touch records path as recently used.
func (t *Tracker) Touch(path string) error {
	return t.update(func(s *State) {
		s.AddRecent(path, t.maxRecent)
	})
}

// Forget removes path from the recent list.
func (t *Tracker) Forget(path string) error {
	return t.update(func(s *State) {
		s.RemoveRecent(path)
	})
}

// SetOpen records the currently open files as the session to restore.
func (t *Tracker) SetOpen(paths []string) error {
	return t.update(func(s *State) {
		s.SetLastSession(paths)
	})
}

func (t *Tracker) update(fn func(s *State)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fn(t.state)
	if err := t.state.Save(t.path); err != nil {
		t.logger.Debug("session write failed", "path", t.path, "error", err)
		return err
	}
	return nil
}
