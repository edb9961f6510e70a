package reconciliation

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/ledger"
)

// ProcessReconciliation reconciles two ledgers and returns the JD totals
// with every identifier seen on one side only. It blocks until done and
// leaves the input files in place.
func (u *reconciliationUsecase) ProcessReconciliation(ctx context.Context, jdPath, corePath string) (*entity.ReconciliationResult, error) {
	jd, err := ledger.Load(ctx, jdPath, u.jdSource(true))
	if err != nil {
		return nil, fmt.Errorf("failed to read JD ledger: %w", err)
	}
	core, err := ledger.Load(ctx, corePath, u.coreSource())
	if err != nil {
		return nil, fmt.Errorf("failed to read Core ledger: %w", err)
	}

	missingInCore, missingInJD, err := Diff(ctx, jd, core, DiffOptions{BatchSize: u.opts.DiffBatchSize})
	if err != nil {
		return nil, fmt.Errorf("failed to match ledgers: %w", err)
	}

	log.Infof("[Reconcile] Matched JD=%d Core=%d | missing in Core=%d, missing in JD=%d",
		jd.Len(), core.Len(), len(missingInCore), len(missingInJD))

	discrepancies := make([]entity.Discrepancy, 0, len(missingInCore)+len(missingInJD))
	discrepancies = append(discrepancies, missingInCore...)
	discrepancies = append(discrepancies, missingInJD...)

	return &entity.ReconciliationResult{
		JDSummary:     jd.Summary,
		Discrepancies: discrepancies,
	}, nil
}
