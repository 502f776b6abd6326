// Package loader reads raw configuration layers for keypad.
//
// Each loader produces a nested map[string]any. The config package merges
// the maps in priority order with DeepMerge.
package loader

import "os"

// Loader is the interface for configuration sources.
type Loader interface {
	// Load reads configuration from the source.
	// Returns nil, nil if the source doesn't exist.
	Load() (map[string]any, error)
}

// FileSystem abstracts the file reads loaders perform.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
