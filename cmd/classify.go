package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a report without storing it",
	Long: "Classify runs the same analysis as a report submission and prints the phase,\n" +
		"the three assigned competencies, and the comment. Without an argument the\n" +
		"report is read from standard input.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) == 1 {
			content = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			content = string(data)
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("report text is empty")
		}

		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		themeTitle, _ := cmd.Flags().GetString("theme")
		name, _ := cmd.Flags().GetString("name")
		cls, err := d.reports.Classify(cmd.Context(), content, themeTitle, name)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cls)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderClassification(cls))
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("theme", "", "Research theme title")
	classifyCmd.Flags().String("name", "", "Student name, used to address the comment")
	classifyCmd.Flags().Bool("json", false, "Print JSON instead of a summary")
}
