package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/infra/locker"
	"github.com/radhian/ledger-reconciliation/infra/progress"
	"github.com/radhian/ledger-reconciliation/infra/storage"
	reconciliationUsecase "github.com/radhian/ledger-reconciliation/usecase/reconciliation"
)

var (
	cfg        *config.Config
	configPath string
	jdPath     string
	corePath   string
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a JD payment-rail export against a Core banking export",
	Long:  "Runs the ledger reconciliation engine on two local files, printing the discrepancies or writing the spreadsheet report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&jdPath, "jd", "", "JD ledger file (.csv, .txt or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&corePath, "core", "", "Core ledger file (.csv, .txt or .xlsx)")
	_ = rootCmd.MarkPersistentFlagRequired("jd")
	_ = rootCmd.MarkPersistentFlagRequired("core")
}

// newUsecase builds an engine whose staging dir is private to this run.
func newUsecase() (reconciliationUsecase.ReconciliationUsecase, func(), error) {
	dir, err := os.MkdirTemp("", "reconcile-")
	if err != nil {
		return nil, nil, fmt.Errorf("create staging dir: %w", err)
	}
	staging, err := storage.NewStaging(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}

	uc := reconciliationUsecase.NewReconciliationUsecase(
		progress.NewTracker(progress.NewMemoryStore()),
		locker.New(),
		staging,
		reconciliationUsecase.OptionsFromConfig(cfg),
	)
	return uc, func() { os.RemoveAll(dir) }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
