package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the JD totals and every identifier found on one side only",
	Long: `Reconciles the two ledgers and prints the result as JSON.

Examples:
  reconcile diff --jd jd.csv --core core.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		uc, cleanup, err := newUsecase()
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := uc.ProcessReconciliation(cmd.Context(), jdPath, corePath)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
