package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tankyu/diary/internal/clock"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show or record a student's reporting streak",
}

var streakShowCmd = &cobra.Command{
	Use:   "show <student-id>",
	Short: "Show the current and best streak",
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

		st, err := d.reports.Streak(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStreak(st))
		return nil
	},
}

var streakRecordCmd = &cobra.Command{
	Use:   "record <student-id>",
	Short: "Record a reporting day without filing a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid student ID %q: %w", args[0], err)
		}
		date := clock.Today()
		if s, _ := cmd.Flags().GetString("date"); s != "" {
			if date, err = clock.ParseDate(s); err != nil {
				return fmt.Errorf("invalid date %q: %w", s, err)
			}
		}

		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		// Unknown students are an error.
		if _, err := d.reports.Streak(cmd.Context(), id); err != nil {
			return err
		}
		st, err := d.streaks.RecordReport(cmd.Context(), id, date)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStreak(st))
		return nil
	},
}

func init() {
	streakRecordCmd.Flags().String("date", "", "Civil date in JST as YYYY-MM-DD (default today)")

	streakCmd.AddCommand(streakShowCmd)
	streakCmd.AddCommand(streakRecordCmd)
}
