package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
)

// Source describes one side of a reconciliation.
type Source struct {
	Side       string
	Delimiter  rune // zero sniffs the delimiter from the file
	SampleSize int
	Decode     Decoder
	Aggregate  bool // accumulate per-direction totals while indexing
}

// Load sniffs, streams and indexes the ledger stored at path.
func Load(ctx context.Context, path string, src Source) (*entity.Ledger, error) {
	format, err := Sniff(path, src.SampleSize)
	if err != nil {
		return nil, err
	}
	if src.Delimiter != 0 {
		format.Delimiter = src.Delimiter
	}

	rows, errs := Stream(ctx, path, format)
	ledger, err := Index(src.Side, rows, errs, src.Decode, src.Aggregate)
	if err != nil {
		return nil, err
	}

	log.Infof("[LedgerReader] %s ledger %s: %d rows, %d records", src.Side, path, ledger.Rows, ledger.Len())
	return ledger, nil
}

// Index consumes rows once, keying every decodable row by identifier. A
// repeated identifier overwrites the earlier record.
func Index(side string, rows <-chan []string, errs <-chan error, decode Decoder, aggregate bool) (*entity.Ledger, error) {
	ledger := entity.NewLedger(side)
	rejected := 0

	for row := range rows {
		ledger.Rows++

		rec, err := decode(row)
		if err != nil {
			if !errors.Is(err, ErrRowRejected) {
				log.Warnf("[LedgerReader] Unexpected decode error on %s row %d: %v", side, ledger.Rows, err)
			}
			rejected++
			continue
		}

		ledger.Put(rec)
		if aggregate {
			ledger.Summary.Add(rec)
		}
	}

	if err := <-errs; err != nil {
		return nil, fmt.Errorf("failed to index %s ledger: %w", side, err)
	}

	log.Debugf("[LedgerReader] %s ledger: %d rows rejected", side, rejected)
	return ledger, nil
}
