package entity

// Ledger maps identifiers to records for one source file. Iteration follows
// the order in which identifiers were first seen; a repeated identifier
// overwrites the stored record in place.
type Ledger struct {
	Side    string
	Rows    int64 // data rows read from the source, accepted or not
	Summary LedgerSummary

	order   []string
	records map[string]LedgerRecord
}

func NewLedger(side string) *Ledger {
	return &Ledger{
		Side:    side,
		records: make(map[string]LedgerRecord),
	}
}

func (l *Ledger) Put(rec LedgerRecord) {
	if _, ok := l.records[rec.Identifier]; !ok {
		l.order = append(l.order, rec.Identifier)
	}
	l.records[rec.Identifier] = rec
}

func (l *Ledger) Has(id string) bool {
	_, ok := l.records[id]
	return ok
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// At returns the i-th record in scan order.
func (l *Ledger) At(i int) LedgerRecord {
	return l.records[l.order[i]]
}

// Identifiers returns the identifiers of the given direction in scan order.
func (l *Ledger) Identifiers(d Direction) []string {
	ids := make([]string, 0, len(l.order))
	for _, id := range l.order {
		if l.records[id].Direction == d {
			ids = append(ids, id)
		}
	}
	return ids
}
