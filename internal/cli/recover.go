package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keypad/internal/app"
	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/recovery"
)

var errRecoveryDisabled = errors.New("crash recovery is disabled in the configuration")

func newRecoverCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Manage crash-recovery snapshots",
		Long:  `List, inspect, restore or discard snapshots of unsaved edits.`,
	}
	cmd.AddCommand(
		newRecoverListCmd(g),
		newRecoverShowCmd(g),
		newRecoverRestoreCmd(g),
		newRecoverDiscardCmd(g),
	)
	return cmd
}

// withRecovery runs fn against an application with autosave configured
// but not started.
func (g *globals) withRecovery(cmd *cobra.Command, fn func(a *app.Application, e *recovery.Engine) error) error {
	a, err := g.newApp(cmd, func(o *app.Options) {
		o.DisableRecovery = false
	})
	if err != nil {
		return err
	}
	e := a.Recovery()
	if e == nil {
		return shutdown(cmd, a, errRecoveryDisabled)
	}
	return shutdown(cmd, a, fn(a, e))
}

func newRecoverListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withRecovery(cmd, func(_ *app.Application, e *recovery.Engine) error {
				refs := e.ListPendingSnapshots()
				if len(refs) == 0 {
					cmd.Println("No recovery snapshots.")
					return nil
				}
				for _, ref := range refs {
					cmd.Printf("%s  %s  v%d  %s\n",
						ref.ID,
						ref.Timestamp.Local().Format(time.DateTime),
						ref.Version,
						displayPath(ref.FilePath),
					)
				}
				cmd.Printf("\nTotal: %d snapshots\n", len(refs))
				return nil
			})
		},
	}
}

func newRecoverShowCmd(g *globals) *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRecovery(cmd, func(_ *app.Application, e *recovery.Engine) error {
				snap, err := findSnapshot(e, args[0])
				if err != nil {
					return err
				}
				if !textOnly {
					f := snap.Format()
					cmd.Printf("Document: %s\n", snap.DocumentID)
					cmd.Printf("File:     %s\n", displayPath(snap.FilePath))
					cmd.Printf("Saved:    %s\n", snap.TimestampUTC.Local().Format(time.DateTime))
					cmd.Printf("Version:  %d\n", snap.ChangeVersion)
					cmd.Printf("Format:   %s, %s, bom=%t\n\n", f.Encoding, f.LineEnding, f.HasBOM)
				}
				cmd.Print(snap.Text)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&textOnly, "text", "t", false, "Print only the recovered text")
	return cmd
}

func newRecoverRestoreCmd(g *globals) *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a snapshot back to its file",
		Long: `Saves the recovered text to the snapshot's file, or to --output. If the
file changed since the snapshot was taken the restore is refused unless
--force is given. The snapshot is deleted once the save succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRecovery(cmd, func(a *app.Application, e *recovery.Engine) error {
				snap, err := findSnapshot(e, args[0])
				if err != nil {
					return err
				}
				if output == "" && snap.FilePath == "" {
					return fmt.Errorf("snapshot %s has no file; use --output", snap.DocumentID)
				}

				doc := snap.ToDocument()
				a.Files().Add(doc)

				if output != "" {
					err = a.SaveAs(cmd.Context(), doc.ID(), output)
				} else {
					err = a.Files().SaveChecked(cmd.Context(), doc.ID(), func(*filestore.Document) filestore.Decision {
						if force {
							return filestore.DecisionOverwrite
						}
						return filestore.DecisionCancel
					})
				}
				if err != nil {
					if filestore.IsCancelled(err) {
						return fmt.Errorf("%s changed since the snapshot was taken; use --force to overwrite", doc.Path())
					}
					return err
				}
				cmd.Printf("Restored %s\n", doc.Path())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite a file changed since the snapshot")
	return cmd
}

func newRecoverDiscardCmd(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "discard [id]...",
		Short: "Delete snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("give snapshot ids or --all")
			}
			return g.withRecovery(cmd, func(_ *app.Application, e *recovery.Engine) error {
				var refs []recovery.Ref
				if all {
					refs = e.ListPendingSnapshots()
				} else {
					for _, id := range args {
						ref, err := findRef(e, id)
						if err != nil {
							return err
						}
						refs = append(refs, ref)
					}
				}
				for _, ref := range refs {
					e.DeleteSnapshot(ref)
				}
				cmd.Printf("Discarded %d snapshots\n", len(refs))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Discard every snapshot")
	return cmd
}

// findRef resolves a full id or a unique id prefix.
func findRef(e *recovery.Engine, id string) (recovery.Ref, error) {
	var found []recovery.Ref
	for _, ref := range e.ListPendingSnapshots() {
		if ref.ID.String() == id {
			return ref, nil
		}
		if strings.HasPrefix(ref.ID.String(), id) {
			found = append(found, ref)
		}
	}
	switch len(found) {
	case 0:
		return recovery.Ref{}, fmt.Errorf("no snapshot %q", id)
	case 1:
		return found[0], nil
	default:
		return recovery.Ref{}, fmt.Errorf("snapshot prefix %q is ambiguous", id)
	}
}

func findSnapshot(e *recovery.Engine, id string) (*recovery.Snapshot, error) {
	ref, err := findRef(e, id)
	if err != nil {
		return nil, err
	}
	snap := e.LoadSnapshot(ref)
	if snap == nil {
		return nil, fmt.Errorf("snapshot %s is unreadable", ref.ID)
	}
	return snap, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(untitled)"
	}
	return path
}
