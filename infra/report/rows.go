package report

import (
	"unicode/utf8"

	"github.com/radhian/ledger-reconciliation/entity"
)

// Rows pairs reference[i] with comparison[i]. The shorter list is padded
// with blanks. A row is valid when either id is longer than minLen, and
// found when it is valid and its comparison id appears among the reference
// ids. Callers pass deduplicated ids, so an identifier repeated in a source
// file takes a single row.
func Rows(reference, comparison []string, minLen int) []entity.ReportRow {
	n := len(reference)
	if len(comparison) > n {
		n = len(comparison)
	}

	known := make(map[string]struct{}, len(reference))
	for _, id := range reference {
		known[id] = struct{}{}
	}

	rows := make([]entity.ReportRow, n)
	for i := range rows {
		var row entity.ReportRow
		if i < len(reference) {
			row.ReferenceID = reference[i]
		}
		if i < len(comparison) {
			row.ComparisonID = comparison[i]
		}
		row.Valid = utf8.RuneCountInString(row.ReferenceID) > minLen ||
			utf8.RuneCountInString(row.ComparisonID) > minLen
		if row.Valid && row.ComparisonID != "" {
			_, row.Found = known[row.ComparisonID]
		}
		rows[i] = row
	}
	return rows
}
