package config

import (
	"errors"
	"maps"
	"path/filepath"
	"time"

	"github.com/dshills/keypad/internal/codec"
	"github.com/dshills/keypad/internal/search"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// FilesConfig provides type-safe access to file settings.
type FilesConfig struct {
	// Encoding is the encoding given to new documents.
	Encoding codec.Encoding

	// EOL is the line ending given to new documents ("lf", "crlf", "cr").
	EOL codec.LineEnding

	// TrimTrailingWhitespace trims trailing whitespace when saving.
	TrimTrailingWhitespace bool

	// InsertFinalNewline inserts a final newline at end of file when saving.
	InsertFinalNewline bool

	// MaxFileSize is the largest file Open accepts, in bytes. Zero means
	// unlimited.
	MaxFileSize int64

	// Watch enables external-change notifications for open files.
	Watch bool

	// WatchDebounce coalesces bursts of file events.
	WatchDebounce time.Duration
}

// Format returns the format for new documents.
func (f FilesConfig) Format() codec.Format {
	return codec.Format{Encoding: f.Encoding, LineEnding: f.EOL}
}

// SaveOptions returns the pre-save transforms.
func (f FilesConfig) SaveOptions() codec.SaveOptions {
	return codec.SaveOptions{
		TrimTrailingWhitespace: f.TrimTrailingWhitespace,
		EnsureFinalNewline:     f.InsertFinalNewline,
	}
}

// RecoveryConfig provides type-safe access to crash recovery settings.
type RecoveryConfig struct {
	// Enabled turns periodic snapshots on.
	Enabled bool

	// Interval is the time between snapshot ticks.
	Interval time.Duration

	// Dir is the snapshot directory.
	Dir string
}

// SessionConfig provides type-safe access to session settings.
type SessionConfig struct {
	// File is the session state file.
	File string

	// MaxRecent caps the recent files list.
	MaxRecent int
}

// SearchConfig provides type-safe access to default search settings.
type SearchConfig struct {
	CaseSensitive bool
	WholeWord     bool
	Regex         bool
	WrapAround    bool
}

// Options converts the settings to search options.
func (s SearchConfig) Options() search.Options {
	return search.Options{
		CaseSensitive: s.CaseSensitive,
		WholeWord:     s.WholeWord,
		UseRegex:      s.Regex,
		WrapAround:    s.WrapAround,
	}
}

// LoggingConfig provides type-safe access to logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string

	// Format is the handler format ("text", "json").
	Format string

	// File is the log file. Empty logs to stderr.
	File string
}

// Files returns the file settings.
func (c *Config) Files() FilesConfig {
	eol, err := codec.ParseLineEnding(c.getStringOr("files.eol", "lf"))
	if err != nil {
		c.recordConfigError("files.eol", err)
		eol = codec.LineEndingLF
	}

	enc := codec.ParseEncoding(c.getStringOr("files.encoding", "utf-8"))
	if !enc.Supported() {
		c.recordConfigError("files.encoding", codec.ErrUnsupportedEncoding)
		enc = codec.EncodingUTF8
	}

	return FilesConfig{
		Encoding:               enc,
		EOL:                    eol,
		TrimTrailingWhitespace: c.getBoolOr("files.trimTrailingWhitespace", false),
		InsertFinalNewline:     c.getBoolOr("files.insertFinalNewline", false),
		MaxFileSize:            c.getIntOr("files.maxFileSize", 10*1024*1024),
		Watch:                  c.getBoolOr("files.watch", true),
		WatchDebounce:          c.getDurationOr("files.watchDebounce", 200*time.Millisecond),
	}
}

// Recovery returns the crash recovery settings.
func (c *Config) Recovery() RecoveryConfig {
	dir := c.getStringOr("recovery.dir", "")
	if dir == "" {
		dir = filepath.Join(userCacheDir(), "recovery")
	}
	return RecoveryConfig{
		Enabled:  c.getBoolOr("recovery.enabled", true),
		Interval: c.getDurationOr("recovery.interval", 30*time.Second),
		Dir:      dir,
	}
}

// Session returns the session settings.
func (c *Config) Session() SessionConfig {
	file := c.getStringOr("session.file", "")
	if file == "" {
		file = filepath.Join(userConfigDir(), "session.yaml")
	}
	return SessionConfig{
		File:      file,
		MaxRecent: int(c.getIntOr("session.maxRecent", 10)),
	}
}

// Search returns the default search settings.
func (c *Config) Search() SearchConfig {
	return SearchConfig{
		CaseSensitive: c.getBoolOr("search.caseSensitive", false),
		WholeWord:     c.getBoolOr("search.wholeWord", false),
		Regex:         c.getBoolOr("search.regex", false),
		WrapAround:    c.getBoolOr("search.wrapAround", true),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Format: c.getStringOr("logging.format", "text"),
		File:   c.getStringOr("logging.file", ""),
	}
}

// Helper methods for getting values with defaults.
// Only ErrSettingNotFound is silent; type errors are recorded for
// ConfigErrors and the default is returned.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int64) int64 {
	v, err := c.GetInt(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) recordUnlessMissing(path string, err error) {
	if !errors.Is(err, ErrSettingNotFound) {
		c.recordConfigError(path, err)
	}
}

// recordConfigError stores the first error seen for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns the configuration errors encountered during access.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	return maps.Clone(c.configErrors)
}
