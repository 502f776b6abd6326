package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
	"github.com/dshills/keypad/internal/search"
)

// searchFlags mirrors search.Options. Flags left unset fall back to the
// configured defaults.
type searchFlags struct {
	caseSensitive bool
	wholeWord     bool
	regex         bool
	noWrap        bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.caseSensitive, "case-sensitive", "s", false, "Match case")
	cmd.Flags().BoolVarP(&f.wholeWord, "whole-word", "w", false, "Match whole words only")
	cmd.Flags().BoolVarP(&f.regex, "regex", "r", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&f.noWrap, "no-wrap", false, "Do not wrap around the ends of the text")
}

func (f *searchFlags) options(cmd *cobra.Command, defaults search.Options) search.Options {
	opts := defaults
	if cmd.Flags().Changed("case-sensitive") {
		opts.CaseSensitive = f.caseSensitive
	}
	if cmd.Flags().Changed("whole-word") {
		opts.WholeWord = f.wholeWord
	}
	if cmd.Flags().Changed("regex") {
		opts.UseRegex = f.regex
	}
	if cmd.Flags().Changed("no-wrap") {
		opts.WrapAround = !f.noWrap
	}
	return opts
}

func newFindCmd(g *globals) *cobra.Command {
	var (
		sf       searchFlags
		from     int
		backward bool
		count    bool
	)
	cmd := &cobra.Command{
		Use:   "find <pattern> <file>",
		Short: "Search a file",
		Long: `Prints every match as line:column: text. With --from, prints only the
next match after the byte offset (or the previous one with --backward).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, nil)
			if err != nil {
				return err
			}
			err = func() error {
				doc, err := a.Open(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				pattern := args[0]
				opts := sf.options(cmd, a.SearchOptions())
				if err := search.Validate(pattern, opts); err != nil {
					return err
				}
				text := doc.Text()

				switch {
				case count:
					cmd.Println(search.CountMatches(text, pattern, opts))
				case cmd.Flags().Changed("from"):
					dir := search.Forward
					if backward {
						dir = search.Backward
					}
					m, ok, err := a.Find(doc.ID(), pattern, from, dir, opts)
					if err != nil {
						return err
					}
					if !ok {
						return errNoMatch
					}
					printMatch(cmd, text, m)
				default:
					matches := search.FindAll(text, pattern, opts)
					if len(matches) == 0 {
						return errNoMatch
					}
					for _, m := range matches {
						printMatch(cmd, text, m)
					}
				}
				return nil
			}()
			return shutdown(cmd, a, err)
		},
	}
	sf.register(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "Byte offset to search from")
	cmd.Flags().BoolVarP(&backward, "backward", "b", false, "Search backward from --from")
	cmd.Flags().BoolVar(&count, "count", false, "Print only the number of matches")
	return cmd
}

func newReplaceCmd(g *globals) *cobra.Command {
	var (
		sf     searchFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "replace <pattern> <replacement> <file>",
		Short: "Replace every match in a file",
		Long: `Replaces every match and saves the file atomically, keeping its encoding
and line endings. In regex mode the replacement may use $1 or ${name}.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, nil)
			if err != nil {
				return err
			}
			return shutdown(cmd, a, runReplace(cmd, a, args, sf.options(cmd, a.SearchOptions()), dryRun))
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report the count without saving")
	return cmd
}

func runReplace(cmd *cobra.Command, a *app.Application, args []string, opts search.Options, dryRun bool) error {
	pattern, replacement, path := args[0], args[1], args[2]
	doc, err := a.Open(cmd.Context(), path)
	if err != nil {
		return err
	}

	if dryRun {
		if err := search.Validate(pattern, opts); err != nil {
			return err
		}
		cmd.Printf("%d matches\n", search.CountMatches(doc.Text(), pattern, opts))
		return nil
	}

	n, err := a.ReplaceAll(doc.ID(), pattern, replacement, opts)
	if err != nil {
		return err
	}
	if n > 0 {
		if err := a.Save(cmd.Context(), doc.ID()); err != nil {
			return err
		}
	}
	cmd.Printf("Replaced %d occurrences in %s\n", n, doc.Path())
	return nil
}

// printMatch prints a match with its 1-based line and column.
func printMatch(cmd *cobra.Command, text string, m search.Match) {
	line, col := position(text, m.Start)
	cmd.Printf("%d:%d: %s\n", line, col, m.Text(text))
}

// position converts a byte offset to a 1-based line and rune column.
func position(text string, offset int) (int, int) {
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}
