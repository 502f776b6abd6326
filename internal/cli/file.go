package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
	"github.com/dshills/keypad/internal/codec"
)

func newInfoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Show the detected format of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, nil)
			if err != nil {
				return err
			}
			return shutdown(cmd, a, runInfo(cmd, a, args))
		},
	}
}

func runInfo(cmd *cobra.Command, a *app.Application, paths []string) error {
	for i, path := range paths {
		doc, err := a.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		if i > 0 {
			cmd.Println()
		}
		f := doc.Format()
		cmd.Printf("%s\n", doc.Path())
		cmd.Printf("  Encoding:    %s\n", f.Encoding)
		cmd.Printf("  BOM:         %t\n", f.HasBOM)
		cmd.Printf("  Line ending: %s\n", f.LineEnding)
		cmd.Printf("  Lines:       %d\n", doc.LineCount())
		cmd.Printf("  Characters:  %d\n", len([]rune(doc.Text())))
	}
	return nil
}

type convertFlags struct {
	encoding     string
	eol          string
	bom          bool
	noBOM        bool
	trim         bool
	finalNewline bool
	output       string
}

func newConvertCmd(g *globals) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a file with a different encoding or line ending",
		Long: `Loads a file and saves it atomically with the requested format. Options
left unset keep the file's current format. The trim and final-newline
transforms also default to the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.bom && f.noBOM {
				return fmt.Errorf("--bom and --no-bom are mutually exclusive")
			}
			var eol codec.LineEnding
			if f.eol != "" {
				le, err := codec.ParseLineEnding(f.eol)
				if err != nil {
					return err
				}
				eol = le
			}
			var enc codec.Encoding
			if f.encoding != "" {
				enc = codec.ParseEncoding(f.encoding)
				if !enc.Supported() {
					return fmt.Errorf("%w: %s", codec.ErrUnsupportedEncoding, f.encoding)
				}
			}

			a, err := g.newApp(cmd, func(o *app.Options) {
				o.Overrides = map[string]any{}
				if f.trim {
					o.Overrides["files.trimTrailingWhitespace"] = true
				}
				if f.finalNewline {
					o.Overrides["files.insertFinalNewline"] = true
				}
			})
			if err != nil {
				return err
			}
			return shutdown(cmd, a, runConvert(cmd, a, args[0], enc, eol, f))
		},
	}
	cmd.Flags().StringVarP(&f.encoding, "encoding", "e", "", "Target encoding (e.g. utf-8, utf-16le, windows-1252)")
	cmd.Flags().StringVar(&f.eol, "eol", "", "Target line ending (lf, crlf, cr)")
	cmd.Flags().BoolVar(&f.bom, "bom", false, "Write a byte order mark")
	cmd.Flags().BoolVar(&f.noBOM, "no-bom", false, "Omit the byte order mark")
	cmd.Flags().BoolVar(&f.trim, "trim", false, "Trim trailing whitespace")
	cmd.Flags().BoolVar(&f.finalNewline, "final-newline", false, "Ensure the file ends with a newline")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write to this path instead of replacing the file")
	return cmd
}

func runConvert(cmd *cobra.Command, a *app.Application, path string, enc codec.Encoding, eol codec.LineEnding, f convertFlags) error {
	doc, err := a.Open(cmd.Context(), path)
	if err != nil {
		return err
	}

	target := doc.Format().Encoding
	if enc != "" {
		target = enc
	}
	if f.bom && !target.IsUnicode() {
		return fmt.Errorf("%s has no byte order mark", target)
	}

	if enc != "" {
		doc.SetEncoding(enc)
	}
	if eol != "" {
		doc.SetLineEnding(eol)
	}
	switch {
	case f.bom:
		doc.SetBOM(true)
	case f.noBOM:
		doc.SetBOM(false)
	}

	if err := a.SaveAs(cmd.Context(), doc.ID(), f.output); err != nil {
		return err
	}

	format := doc.Format()
	cmd.Printf("Wrote %s (%s, %s, bom=%t)\n", doc.Path(), format.Encoding, format.LineEnding, format.HasBOM)
	return nil
}
