package commands

import (
	"fmt"

	"studentcorner-backend/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(evalCmd)
}

var evalCmd = &cobra.Command{
	Use:   "eval [--db <path>]",
	Short: "Solves every labelled sample and prints the solver's accuracy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSamples()
		if err != nil {
			return err
		}
		defer store.Close()

		solver := readConfig().solver(telemetry.SlogAPI{})
		report, err := store.Evaluate(cmd.Context(), solver)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Sample", "Label", "Recognized", "Branch", "Correct"})
		for _, e := range report.Evaluations {
			recognized := e.Solution.Code
			if !e.Solution.Solved() {
				recognized = fmt.Sprintf("(%q)", e.Solution.RawText)
			}
			t.AppendRow(table.Row{e.SampleId, e.Label, recognized, e.Solution.Branch, e.Correct})
		}
		t.AppendFooter(table.Row{
			"", "", "", "Accuracy",
			fmt.Sprintf("%d/%d (%.1f%%)", report.Correct, len(report.Evaluations), report.Accuracy()*100),
		})
		t.Render()
		return nil
	},
}
