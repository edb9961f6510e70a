package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/utils"
	"github.com/shopspring/decimal"
)

// ErrRowRejected wraps every reason a row is left out of a ledger.
var ErrRowRejected = errors.New("row rejected")

var (
	errShortRow         = fmt.Errorf("%w: too few fields", ErrRowRejected)
	errNotSettled       = fmt.Errorf("%w: not settled", ErrRowRejected)
	errOperation        = fmt.Errorf("%w: operation filtered out", ErrRowRejected)
	errUnknownDirection = fmt.Errorf("%w: unknown direction", ErrRowRejected)
	errEmptyIdentifier  = fmt.Errorf("%w: empty identifier", ErrRowRejected)
)

// Decoder turns one raw row into a ledger record.
type Decoder func(row []string) (entity.LedgerRecord, error)

// JD payment-rail export columns.
const (
	jdNumFields    = 19
	jdColOperation = 1
	jdColE2E       = 2
	jdColNature    = 5
	jdColAmount    = 6
	jdColStatus    = 18
)

// Core banking export columns.
const (
	coreMinFields    = 2
	coreColDirection = 0
	coreColE2E       = 1
	coreColAmount    = 3
)

// JDLayout decodes JD rows. When Operations is non-empty only rows whose
// operation column is one of them are kept. Amount parses the value column;
// nil means pt-BR notation.
type JDLayout struct {
	Operations []string
	Amount     func(string) decimal.Decimal
}

func (l JDLayout) Decode(row []string) (entity.LedgerRecord, error) {
	if len(row) < jdNumFields {
		return entity.LedgerRecord{}, errShortRow
	}
	if utils.NormalizeText(row[jdColStatus]) != consts.SettledStatus {
		return entity.LedgerRecord{}, errNotSettled
	}
	if len(l.Operations) > 0 && !l.allows(utils.NormalizeText(row[jdColOperation])) {
		return entity.LedgerRecord{}, errOperation
	}

	id := utils.NormalizeText(row[jdColE2E])
	if id == "" {
		return entity.LedgerRecord{}, errEmptyIdentifier
	}

	direction := entity.DirectionDebit
	if strings.Contains(utils.NormalizeText(row[jdColNature]), "CREDITO") {
		direction = entity.DirectionCredit
	}

	parse := l.Amount
	if parse == nil {
		parse = utils.ParseAmount
	}

	return entity.LedgerRecord{
		Identifier: id,
		Direction:  direction,
		Amount:     parse(utils.NormalizeText(row[jdColAmount])),
	}, nil
}

func (l JDLayout) allows(op string) bool {
	for _, o := range l.Operations {
		if utils.NormalizeText(o) == op {
			return true
		}
	}
	return false
}

// DecodeCore decodes a Core row: direction code, identifier and an optional
// amount in the fourth column.
func DecodeCore(row []string) (entity.LedgerRecord, error) {
	if len(row) < coreMinFields {
		return entity.LedgerRecord{}, errShortRow
	}

	var direction entity.Direction
	switch utils.NormalizeText(row[coreColDirection]) {
	case string(entity.DirectionCredit):
		direction = entity.DirectionCredit
	case string(entity.DirectionDebit):
		direction = entity.DirectionDebit
	default:
		return entity.LedgerRecord{}, errUnknownDirection
	}

	id := utils.NormalizeText(row[coreColE2E])
	if id == "" {
		return entity.LedgerRecord{}, errEmptyIdentifier
	}

	rec := entity.LedgerRecord{Identifier: id, Direction: direction}
	if len(row) > coreColAmount {
		rec.Amount = utils.ParseAmount(row[coreColAmount])
	}
	return rec, nil
}
