package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sylvectl/internal/api"
	"sylvectl/internal/cache"
	"sylvectl/internal/loader"
	"sylvectl/internal/utils"
	"sylvectl/internal/views"
	"sylvectl/sylve"
)

// newNotesCmd creates the 'notes' command and its subcommands
func newNotesCmd(a *app) *cobra.Command {
	cmd := pageCmd(a, &cobra.Command{
		Use:   "notes",
		Short: "List and manage operator notes",
	}, "notes", (*loader.Loader).Notes, func(n []sylve.Note) (any, []views.Table) {
		return n, []views.Table{views.NotesTable(n)}
	})
	cmd.AddCommand(newNotesAddCmd(a))
	cmd.AddCommand(newNotesEditCmd(a))
	cmd.AddCommand(newNotesDeleteCmd(a))
	return cmd
}

func newNotesAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <content>",
		Short: "Add a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}
			// The list is read first so the new note can be appended to it
			// in the cache without a refetch.
			notes, listErr := ld.Notes(cmd.Context())

			r, err := ld.Client().CreateNote(cmd.Context(), sylve.NoteRequest{Title: args[0], Content: args[1]})
			if err != nil {
				return err
			}
			if err := r.Cause(); err != nil {
				return a.userError("create note", err)
			}

			if listErr == nil {
				err = cache.Update(ld.Cache(), loader.KeyNotes, append(notes, r.Value))
			} else {
				err = ld.Cache().Invalidate(loader.KeyNotes)
			}
			if err != nil {
				a.log.Warn("failed to update cached notes: %v", err)
			}

			if a.jsonOutput {
				return writeJSON(a.stdout, r.Value)
			}
			_, _ = fmt.Fprintf(a.stdout, "Created note %d: %s\n", r.Value.ID, r.Value.Title)
			return nil
		},
	}
}

func newNotesEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title> <content>",
		Short: "Replace the title and content of a note",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid note id: %s", args[0])
			}
			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}
			r, err := ld.Client().UpdateNote(cmd.Context(), id, sylve.NoteRequest{Title: args[1], Content: args[2]})
			if err != nil {
				return err
			}
			if err := r.Cause(); err != nil {
				return a.userError("update note", err)
			}
			if err := ld.Cache().Invalidate(loader.KeyNotes); err != nil {
				a.log.Warn("failed to invalidate cached notes: %v", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Updated note %d\n", id)
			return nil
		},
	}
}

func newNotesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid note id: %s", arg)
				}
				ids = append(ids, id)
			}

			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}
			var r api.Result[api.Envelope]
			if len(ids) == 1 {
				r = ld.Client().DeleteNote(cmd.Context(), ids[0])
			} else {
				r = ld.Client().DeleteNotes(cmd.Context(), ids)
			}
			if err := r.Cause(); err != nil {
				return a.userError("delete note", err)
			}
			if err := ld.Cache().Invalidate(loader.KeyNotes); err != nil {
				a.log.Warn("failed to invalidate cached notes: %v", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Deleted %d note(s)\n", len(ids))
			return nil
		},
	}
}

// newSnapshotCmd creates the 'snapshot' command and its subcommands
func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage ZFS snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSnapshotCreateCmd(a))
	cmd.AddCommand(newSnapshotDeleteCmd(a))
	return cmd
}

func newSnapshotCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <dataset> <name>",
		Short: "Snapshot a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, _ := cmd.Flags().GetBool("recursive")
			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}
			r, err := ld.Client().CreateSnapshot(cmd.Context(), sylve.CreateSnapshotRequest{
				Dataset:   args[0],
				Name:      strings.TrimPrefix(args[1], "@"),
				Recursive: recursive,
			})
			if err != nil {
				return err
			}
			if err := r.Cause(); err != nil {
				return a.userError("create snapshot", err)
			}
			if err := ld.Cache().Invalidate(loader.KeyDatasets); err != nil {
				a.log.Warn("failed to invalidate cached datasets: %v", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Created snapshot %s@%s\n", args[0], strings.TrimPrefix(args[1], "@"))
			return nil
		},
	}
	cmd.Flags().BoolP("recursive", "r", false, "Also snapshot child datasets")
	return cmd
}

func newSnapshotDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <guid>",
		Short: "Delete a snapshot by GUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !utils.Confirm("Delete snapshot "+args[0]+"?", stdinOf(a.cfg), a.stderr) {
				_, _ = fmt.Fprintln(a.stdout, "Aborted")
				return nil
			}
			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}
			if err := ld.Client().DeleteSnapshot(cmd.Context(), args[0]).Cause(); err != nil {
				return a.userError("delete snapshot", err)
			}
			if err := ld.Cache().Invalidate(loader.KeyDatasets); err != nil {
				a.log.Warn("failed to invalidate cached datasets: %v", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Deleted snapshot %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
