package cli

import (
	"github.com/spf13/cobra"
)

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("keypad version %s\n", g.build.Version)
			if g.build.Commit != "" {
				cmd.Printf("commit: %s\n", g.build.Commit)
			}
			if g.build.Date != "" {
				cmd.Printf("built: %s\n", g.build.Date)
			}
		},
	}
}
