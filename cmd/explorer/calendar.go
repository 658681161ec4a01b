package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Calendar exports",
	}
	cmd.AddCommand(calendarExportCmd())
	return cmd
}

func calendarExportCmd() *cobra.Command {
	var (
		out      string
		sessions []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write sessions to an iCalendar file",
		Long: `Write sessions to an iCalendar file.

Without --session every session of the program is exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			export, err := a.calendar.ExportICS(cmd.Context(), sessions)
			if err != nil {
				return describe(err)
			}
			path := out
			if path == "" {
				path = export.FileName
			}
			if err := writeOutput(cmd.OutOrStdout(), path, export.Data); err != nil {
				return err
			}
			if path != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "calendar exported to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default conference-sessions-<date>.ics)`)
	cmd.Flags().StringSliceVarP(&sessions, "session", "s", nil, "session id to export, repeatable")
	return cmd
}
