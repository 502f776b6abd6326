package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
)

func newRecentCmd(g *globals) *cobra.Command {
	var (
		last   bool
		forget string
	)
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently used files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.newApp(cmd, nil)
			if err != nil {
				return err
			}
			return shutdown(cmd, a, runRecent(cmd, a, last, forget))
		},
	}
	cmd.Flags().BoolVarP(&last, "last-session", "l", false, "List the files open when keypad last exited")
	cmd.Flags().StringVar(&forget, "forget", "", "Remove a file from the recent list")
	return cmd
}

func runRecent(cmd *cobra.Command, a *app.Application, last bool, forget string) error {
	tracker := a.Session()
	if forget != "" {
		if err := tracker.Forget(forget); err != nil {
			return err
		}
		cmd.Printf("Forgot %s\n", forget)
		return nil
	}

	paths := tracker.Recent()
	if last {
		paths = tracker.LastSession()
	}
	for _, p := range paths {
		cmd.Println(p)
	}
	return nil
}
