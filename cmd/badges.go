package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var badgesCmd = &cobra.Command{
	Use:   "badges <student-id>",
	Short: "Show a student's report count, competencies, and earned badges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid student ID %q: %w", args[0], err)
		}
		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		sum, err := d.reports.Summary(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum))
		return nil
	},
}
