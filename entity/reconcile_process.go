package entity

import (
	"time"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "C"
	DirectionDebit  Direction = "D"
)

// LedgerRecord is one normalized transaction observation.
type LedgerRecord struct {
	Identifier string          `json:"identifier"`
	Direction  Direction       `json:"direction"`
	Amount     decimal.Decimal `json:"amount"`
}

type DirectionTotal struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type LedgerSummary struct {
	Credit DirectionTotal `json:"C"`
	Debit  DirectionTotal `json:"D"`
}

// Add accumulates one accepted record into the per-direction totals.
func (s *LedgerSummary) Add(rec LedgerRecord) {
	t := &s.Debit
	if rec.Direction == DirectionCredit {
		t = &s.Credit
	}
	t.Count++
	t.Total = t.Total.Add(rec.Amount)
}

// Discrepancy is an identifier present in exactly one ledger.
type Discrepancy struct {
	Identifier  string          `json:"identifier"`
	Direction   Direction       `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	MissingFrom string          `json:"missing_from"`
}

type ReconciliationResult struct {
	JDSummary     LedgerSummary `json:"jd_summary"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// JobSummary is attached to a finished report job.
type JobSummary struct {
	JDRecords     int           `json:"jd_records"`
	CoreRecords   int           `json:"core_records"`
	MissingInCore int           `json:"missing_in_core"`
	MissingInJD   int           `json:"missing_in_jd"`
	JDSummary     LedgerSummary `json:"jd_summary"`
}

type JobProgress struct {
	JobID        string      `json:"job_id,omitempty"`
	Status       string      `json:"status"`
	Percent      int         `json:"percent"`
	Rows         int64       `json:"rows"`
	Stage        string      `json:"stage"`
	Summary      *JobSummary `json:"summary,omitempty"`
	ArtifactPath string      `json:"-"`
	Inputs       []string    `json:"-"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Terminal reports whether the job can no longer change state.
func (p JobProgress) Terminal() bool {
	return p.Status == consts.StatusDone || p.Status == consts.StatusFailed
}

type ReportJobRequest struct {
	JobID    string
	JDPath   string
	CorePath string
}

// ReportRow is one line of a per-direction comparison sheet.
type ReportRow struct {
	ReferenceID  string
	ComparisonID string
	Valid        bool
	Found        bool
}
