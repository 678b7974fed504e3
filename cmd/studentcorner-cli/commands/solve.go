package commands

import (
	"fmt"
	"os"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var solveOut *string

func init() {
	solveOut = solveCmd.Flags().StringP("out", "o", "", "Write the preprocessed image to this path.")
	rootCmd.AddCommand(solveCmd)
}

var solveCmd = &cobra.Command{
	Use:   "solve <image> [-o <preprocessed.png>]",
	Short: "Runs preprocessing and OCR on a captcha image file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		if *solveOut != "" {
			pre := captcha.Preprocess(raw)
			err = os.WriteFile(*solveOut, pre.Image, 0644)
			if err != nil {
				return err
			}
		}

		solution := readConfig().solver(telemetry.SlogAPI{}).Solve(cmd.Context(), raw)

		failure := ""
		if solution.Failure != nil {
			failure = solution.Failure.Error()
		}

		t := newTable()
		t.AppendHeader(table.Row{"Branch", "OCR text", "Code", "Failure"})
		t.AppendRow(table.Row{solution.Branch, fmt.Sprintf("%q", solution.RawText), solution.Code, failure})
		t.Render()

		if !solution.Solved() {
			return fmt.Errorf("could not solve %s", args[0])
		}
		return nil
	},
}
