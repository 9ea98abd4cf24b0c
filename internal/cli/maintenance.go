package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFieldsCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the field names of the items a search matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.searchLibrary(cmd, opts)
			if err != nil {
				return err
			}

			fields := lib.Fields()
			return a.render(cmd.OutOrStdout(), fields, func(w io.Writer) error {
				for _, f := range fields {
					fmt.Fprintln(w, f)
				}
				return nil
			})
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func newRecoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Clean up after an interrupted write of the library document",
		Long: `Removes a stale .tmp file left by an interrupted write and restores the
.bak copy when the document itself is missing. Only run this while no other
assetlib process is writing the library.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.openLibrary()
			if err != nil {
				return err
			}

			res, err := a.store.Recover(lib.DataPath())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), res, func(w io.Writer) error {
				switch {
				case res.RestoredBak:
					fmt.Fprintf(w, "restored %s from backup\n", lib.DataPath())
				case res.RemovedTmp || res.RemovedBak:
					fmt.Fprintf(w, "removed leftovers of %s\n", lib.DataPath())
				default:
					fmt.Fprintf(w, "%s is clean\n", lib.DataPath())
				}
				return nil
			})
		},
	}
}

func newTrashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trash <path>...",
		Short: "Move items into the library trash folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.openLibrary()
			if err != nil {
				return err
			}

			paths := make([]string, len(args))
			for i, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				paths[i] = abs
			}

			if err := lib.MoveItemsToTrash(paths); err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), paths, func(w io.Writer) error {
				for _, p := range paths {
					fmt.Fprintf(w, "trashed %s\n", p)
				}
				return nil
			})
		},
	}
}
