package reconciliation

import (
	"context"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/utils"
)

type DiffOptions struct {
	BatchSize int
	// OnProgress receives the number of entries scanned so far across both
	// ledgers and the total to scan.
	OnProgress func(done, total int)
}

// Diff returns the records of a whose identifier is absent from b, and the
// records of b whose identifier is absent from a, each in scan order. The
// scan runs in batches and yields between them.
func Diff(ctx context.Context, a, b *entity.Ledger, opts DiffOptions) (missingInB, missingInA []entity.Discrepancy, err error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = consts.DefaultDiffBatchSize
	}
	total := a.Len() + b.Len()

	missingInB, err = oneSided(ctx, a, b, opts, 0, total)
	if err != nil {
		return nil, nil, err
	}
	missingInA, err = oneSided(ctx, b, a, opts, a.Len(), total)
	if err != nil {
		return nil, nil, err
	}
	return missingInB, missingInA, nil
}

func oneSided(ctx context.Context, from, against *entity.Ledger, opts DiffOptions, offset, total int) ([]entity.Discrepancy, error) {
	missing := make([]entity.Discrepancy, 0)

	var onBatch func(done, _ int)
	if opts.OnProgress != nil {
		onBatch = func(done, _ int) { opts.OnProgress(offset+done, total) }
	}

	err := utils.RunInBatches(ctx, from.Len(), opts.BatchSize, func(i int) {
		rec := from.At(i)
		if against.Has(rec.Identifier) {
			return
		}
		missing = append(missing, entity.Discrepancy{
			Identifier:  rec.Identifier,
			Direction:   rec.Direction,
			Amount:      rec.Amount,
			MissingFrom: against.Side,
		})
	}, onBatch)
	if err != nil {
		return nil, err
	}
	return missing, nil
}
