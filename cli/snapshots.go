package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var snapshotLabel string

func init() {
	snapshotsSaveCmd.Flags().StringVarP(&snapshotLabel, "label", "l", "", "name stored in the snapshot file name")

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsSaveCmd, snapshotsRenameCmd, snapshotsRemoveCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage timestamped JSON snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:     "list [project]",
	Aliases: []string{"ls"},
	Short:   "List projects, or the saves of one project",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			projects, err := store.ListProjects()
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}

		saves, err := store.ListSaves(args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SAVED\tNAME\tFILE")
		for _, s := range saves {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Timestamp.Format("2006-01-02 15:04:05"), s.Name, s.Filename)
		}
		return w.Flush()
	},
}

var snapshotsSaveCmd = &cobra.Command{
	Use:   "save <project> <file>",
	Short: "Store a MIDI file or snapshot as a new save of project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(args[1])
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		info, err := store.Save(args[0], snapshotLabel, doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.Filename)
		return nil
	},
}

var snapshotsRenameCmd = &cobra.Command{
	Use:   "rename <project> <file> <name>",
	Short: "Change the name of a save, keeping its timestamp",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		name, err := store.RenameSave(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var snapshotsRemoveCmd = &cobra.Command{
	Use:     "rm <project> [file]",
	Aliases: []string{"delete"},
	Short:   "Delete one save, or the whole project",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return store.DeleteProject(args[0])
		}
		return store.DeleteSave(args[0], args[1])
	},
}
