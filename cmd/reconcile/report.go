package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the Credit/Debit comparison spreadsheet",
	Long: `Reconciles the two ledgers and writes the xlsx report.

Examples:
  reconcile report --jd jd.csv --core core.csv --out report.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		uc, cleanup, err := newUsecase()
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := uc.GenerateReport(cmd.Context(), jdPath, corePath, reportOut)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: JD=%d Core=%d missing in Core=%d missing in JD=%d\n",
			reportOut, summary.JDRecords, summary.CoreRecords, summary.MissingInCore, summary.MissingInJD)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "report.xlsx", "output xlsx path")
	rootCmd.AddCommand(reportCmd)
}
