// Package cli implements the keypad command line.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	build      BuildInfo
}

// newApp creates an application for a one-shot command. Autosave and
// file watching stay off unless a command asks for them.
func (g *globals) newApp(cmd *cobra.Command, configure func(*app.Options)) (*app.Application, error) {
	opts := app.Options{
		ConfigPath:      g.configPath,
		LogLevel:        g.logLevel,
		LogOutput:       cmd.ErrOrStderr(),
		DisableRecovery: true,
		DisableWatcher:  true,
		Ephemeral:       true,
	}
	if configure != nil {
		configure(&opts)
	}
	return app.New(opts)
}

// NewRootCmd builds the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	g := &globals{build: build}

	root := &cobra.Command{
		Use:   "keypad",
		Short: "Plain-text file toolkit with crash recovery",
		Long: `keypad loads and saves plain-text files while preserving their encoding,
byte order mark and line endings. It searches and replaces text, keeps
crash-recovery snapshots of unsaved edits and remembers recent files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newInfoCmd(g),
		newConvertCmd(g),
		newFindCmd(g),
		newReplaceCmd(g),
		newRecoverCmd(g),
		newRecentCmd(g),
		newConfigCmd(g),
		newWatchCmd(g),
		newVersionCmd(g),
	)
	return root
}

// Execute runs the command line with args.
func Execute(ctx context.Context, build BuildInfo, args []string) error {
	root := NewRootCmd(build)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// shutdownTimeout bounds the final snapshot pass on exit.
const shutdownTimeout = 5 * time.Second

// shutdown closes an application, keeping the command's error. It runs
// even after the command context was cancelled by a signal.
func shutdown(cmd *cobra.Command, a *app.Application, err error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
	defer cancel()
	if serr := a.Shutdown(ctx); err == nil {
		return serr
	}
	return err
}
