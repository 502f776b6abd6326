package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/watcher"
)

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>...",
		Short: "Open files and report external changes until interrupted",
		Long: `Opens the files with autosave and file watching enabled. Clean files are
reloaded when they change on disk; changes to modified files are
reported. The open files are recorded as the session on exit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, func(o *app.Options) {
				o.DisableRecovery = false
				o.DisableWatcher = false
				o.Ephemeral = false
				o.Files = args
				o.OnConflict = func(doc *filestore.Document, ev watcher.Event) {
					cmd.Printf("conflict: %s changed on disk (%s) with unsaved edits\n", doc.Path(), ev.Op)
				}
			})
			if err != nil {
				return err
			}
			if err := a.Start(cmd.Context()); err != nil {
				return shutdown(cmd, a, err)
			}
			for _, doc := range a.Files().Documents() {
				cmd.Printf("watching %s\n", doc.Path())
			}

			<-cmd.Context().Done()
			return shutdown(cmd, a, nil)
		},
	}
}
