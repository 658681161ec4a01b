package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/program-explorer/internal/bookmarks"
)

func bookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Export or import bookmark state",
	}
	cmd.AddCommand(bookmarksExportCmd())
	cmd.AddCommand(bookmarksImportCmd())
	return cmd
}

func bookmarksExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the bookmark state to a dated JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			export, err := a.bookmarks.Export(cmd.Context())
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = export.FileName
			}
			if err := writeOutput(cmd.OutOrStdout(), path, export.Data); err != nil {
				return err
			}
			if path != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "bookmarks exported to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default conference-bookmarks-<date>.json)`)
	return cmd
}

func bookmarksImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge an exported bookmark file into the current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.bookmarks.Import(cmd.Context(), payload)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported: %d speaker and %d session bookmarks, %d speaker and %d session rejections\n",
				state.Bookmarks(bookmarks.KindSpeaker).Len(),
				state.Bookmarks(bookmarks.KindSession).Len(),
				state.Rejections(bookmarks.KindSpeaker).Len(),
				state.Rejections(bookmarks.KindSession).Len(),
			)
			return nil
		},
	}
}
