package consts

const (
	// Job status codes
	StatusPending = "pending" // reported for job ids the tracker does not know
	StatusCreated = "created"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"

	// Ledger sides
	SideJD   = "JD"
	SideCore = "CORE"

	// JD status value required for a row to take part in reconciliation
	SettledStatus = "EFETIVADO"

	// Amount notations of a ledger column
	AmountFormatBR  = "br"  // 1.234,56
	AmountFormatDot = "dot" // 1234.56

	// Default config
	DefaultDiffBatchSize     = 1000
	DefaultReportBatchSize   = 500
	DefaultSniffSampleSize   = 1000
	DefaultMaxConcurrentJobs = 2
	DefaultValidationMinLen  = 10
	DefaultWorkerNumber      = 1
	DefaultIntervalInSec     = 300
	DefaultRetentionInSec    = 3600
)

// Progress checkpoints, in percent.
const (
	ProgressCreated     = 0
	ProgressReadingJD   = 5
	ProgressJDLoaded    = 25
	ProgressCoreLoaded  = 45
	ProgressMatchStart  = 50
	ProgressMatchEnd    = 70
	ProgressCreditSheet = 85
	ProgressDebitSheet  = 99
	ProgressDone        = 100
)

// Stage labels reported to pollers.
const (
	StageWaiting     = "waiting"
	StageQueued      = "queued"
	StageReadingJD   = "reading JD ledger"
	StageReadingCore = "reading Core ledger"
	StageMatching    = "matching transactions"
	StageWriting     = "writing report"
	StageDone        = "completed"
	StageFailed      = "processing failed"
)
