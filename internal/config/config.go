package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/keypad/internal/config/loader"
)

// DefaultEnvPrefix is the prefix of environment variables read as settings.
const DefaultEnvPrefix = "KEYPAD_"

// Config provides access to the merged configuration.
type Config struct {
	mu sync.RWMutex

	// Merged view of defaults, file and environment.
	data map[string]any

	configFile string
	envPrefix  string
	fs         loader.FileSystem

	// configErrors stores errors encountered during configuration access.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithConfigFile sets the TOML file to load. Empty means no file.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.configFile = path
	}
}

// WithEnvPrefix sets the environment prefix. Empty disables the
// environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithFileSystem sets the file system the config file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// New creates a Config holding only the built-in defaults.
func New(opts ...Option) *Config {
	c := &Config{
		data:       defaultConfig(),
		configFile: DefaultConfigFile(),
		envPrefix:  DefaultEnvPrefix,
		fs:         loader.DefaultFS(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load resolves the configuration from all layers. A missing config file
// is not an error.
func (c *Config) Load(_ context.Context) error {
	merged := defaultConfig()

	if c.configFile != "" {
		fileData, err := loader.NewTOMLLoaderWithFS(c.fs, c.configFile).Load()
		if err != nil {
			return err
		}
		merged = loader.DeepMerge(merged, fileData)
	}

	if c.envPrefix != "" {
		envData, err := loader.NewEnvLoader(c.envPrefix).Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, envData)
	}

	c.mu.Lock()
	c.data = merged
	c.configErrors = nil
	c.mu.Unlock()
	return nil
}

// ConfigFile returns the path of the config file.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.data, path)
}

// Set overrides the value at path. Used for command-line flags.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.data, path, value)
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.data)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v), Value: v}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != float64(int64(val)) {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "float64", Value: v}
		}
		return int64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v), Value: v}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v), Value: v}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: "string", Value: v}
		}
		return d, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v), Value: v}
	}
}

// DefaultConfigFile returns the default config file path.
func DefaultConfigFile() string {
	return filepath.Join(userConfigDir(), "config.toml")
}

// userConfigDir returns the keypad directory under the user config dir.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "keypad")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "keypad")
	}
	return filepath.Join(os.TempDir(), "keypad")
}

// userCacheDir returns the keypad directory under the user cache dir.
func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "keypad")
	}
	return filepath.Join(os.TempDir(), "keypad")
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"files": map[string]any{
			"encoding":               "utf-8",
			"eol":                    "lf",
			"trimTrailingWhitespace": false,
			"insertFinalNewline":     false,
			"maxFileSize":            int64(10 * 1024 * 1024),
			"watch":                  true,
			"watchDebounce":          "200ms",
		},
		"recovery": map[string]any{
			"enabled":  true,
			"interval": "30s",
			"dir":      "",
		},
		"session": map[string]any{
			"file":      "",
			"maxRecent": int64(10),
		},
		"search": map[string]any{
			"caseSensitive": false,
			"wholeWord":     false,
			"regex":         false,
			"wrapAround":    true,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
			"file":   "",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = cm[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return ErrInvalidPath
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts, dropping empty ones.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '.' })
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
