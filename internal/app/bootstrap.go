package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dshills/keypad/internal/config"
	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/recovery"
	"github.com/dshills/keypad/internal/session"
	"github.com/dshills/keypad/internal/watcher"
)

// bootstrapper handles component initialization with cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		init func() error
	}{
		{"config", b.initConfig},
		{"logger", b.initLogger},
		{"files", b.initFiles},
		{"session", b.initSession},
		{"recovery", b.initRecovery},
		{"watcher", b.initWatcher},
	}

	for _, step := range steps {
		if err := step.init(); err != nil {
			b.cleanup()
			return &InitError{Component: step.name, Err: err}
		}
		b.initOrder = append(b.initOrder, step.name)
	}

	b.app.wire()
	b.app.logger.Debug("bootstrap complete", "components", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	var opts []config.Option
	if b.opts.ConfigPath != "" {
		opts = append(opts, config.WithConfigFile(b.opts.ConfigPath))
	}
	cfg := config.New(opts...)
	if err := cfg.Load(context.Background()); err != nil {
		return err
	}
	for path, value := range b.opts.Overrides {
		if err := cfg.Set(path, value); err != nil {
			return fmt.Errorf("override %s: %w", path, err)
		}
	}
	b.app.config = cfg
	return nil
}

func (b *bootstrapper) initLogger() error {
	logCfg := b.app.config.Logging()
	if b.opts.LogLevel != "" {
		logCfg.Level = b.opts.LogLevel
	}

	out := b.opts.LogOutput
	if out == nil && logCfg.File != "" {
		f, err := openLogFile(logCfg.File)
		if err != nil {
			return err
		}
		b.app.logCloser = f
		out = f
	}

	b.app.logger = NewLogger(LoggerConfig{
		Level:  logCfg.Level,
		Format: logCfg.Format,
		Output: out,
	})

	for path, err := range b.app.config.ConfigErrors() {
		b.app.logger.Warn("invalid setting, using default", "setting", path, "error", err)
	}
	return nil
}

func (b *bootstrapper) initFiles() error {
	files := b.app.config.Files()
	b.app.files = filestore.NewFileStore(
		filestore.WithMaxFileSize(files.MaxFileSize),
		filestore.WithSaveOptions(files.SaveOptions()),
		filestore.WithDefaultFormat(files.Format()),
		filestore.WithLogger(WithComponent(b.app.logger, "filestore")),
	)
	b.app.searchOpts = b.app.config.Search().Options()
	return nil
}

func (b *bootstrapper) initSession() error {
	cfg := b.app.config.Session()
	b.app.session = session.NewTracker(cfg.File, cfg.MaxRecent, WithComponent(b.app.logger, "session"))
	return nil
}

func (b *bootstrapper) initRecovery() error {
	cfg := b.app.config.Recovery()
	if b.opts.DisableRecovery || !cfg.Enabled {
		return nil
	}
	b.app.recovery = recovery.New(
		recovery.NewStore(cfg.Dir),
		cfg.Interval,
		WithComponent(b.app.logger, "recovery"),
	)
	return nil
}

func (b *bootstrapper) initWatcher() error {
	cfg := b.app.config.Files()
	if b.opts.DisableWatcher || !cfg.Watch {
		return nil
	}
	w, err := watcher.New(b.app.handleFileEvent,
		watcher.WithDebounce(cfg.WatchDebounce),
		watcher.WithLogger(WithComponent(b.app.logger, "watcher")),
	)
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	b.app.watcher = w
	return nil
}

// cleanup releases components initialized before a failure.
func (b *bootstrapper) cleanup() {
	if b.app.watcher != nil {
		_ = b.app.watcher.Close()
	}
	closeQuietly(b.app.logCloser)
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
