package cli

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the merged configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := g.newApp(cmd, nil)
				if err != nil {
					return err
				}
				return shutdown(cmd, a, runConfigShow(cmd, a))
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := g.newApp(cmd, nil)
				if err != nil {
					return err
				}
				cmd.Println(a.Config().ConfigFile())
				return shutdown(cmd, a, nil)
			},
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command, a *app.Application) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(a.Config().Merged()); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	cmd.Print(buf.String())

	for path, err := range a.Config().ConfigErrors() {
		cmd.PrintErrf("warning: %s: %v\n", path, err)
	}
	return nil
}
