package reconciliation

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/ledger"
	"github.com/radhian/ledger-reconciliation/infra/locker"
	"github.com/radhian/ledger-reconciliation/infra/progress"
	"github.com/radhian/ledger-reconciliation/infra/report"
	"github.com/radhian/ledger-reconciliation/infra/storage"
	"github.com/radhian/ledger-reconciliation/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

var (
	ErrJobInUse       = errors.New("job id already in use")
	ErrResultNotReady = errors.New("result not found")
)

type ReconciliationUsecase interface {
	ProcessReconciliation(ctx context.Context, jdPath, corePath string) (*entity.ReconciliationResult, error)
	ProcessReconciliationInit(ctx context.Context, req entity.ReportJobRequest) (string, error)
	ProcessReconciliationJob(ctx context.Context, req entity.ReportJobRequest) error
	GenerateReport(ctx context.Context, jdPath, corePath, outPath string) (*entity.JobSummary, error)
	GetProgress(ctx context.Context, jobID string) (entity.JobProgress, error)
	ProbeResult(ctx context.Context, jobID string) bool
	ConsumeResult(ctx context.Context, jobID string) (io.ReadSeekCloser, error)
	StageUpload(src io.Reader, originalName string) (string, error)
	DiscardUploads(paths ...string)
	TryAcquireLock(jobID string) bool
	UnlockProcess(jobID string)
	Housekeep(ctx context.Context) (HousekeepingResult, error)
	Wait(ctx context.Context) error
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	DiffBatchSize    int
	ReportBatchSize  int
	MaxConcurrent    int
	SniffSampleSize  int
	JDDelimiter      rune
	CoreDelimiter    rune // zero sniffs
	JDOperations     []string
	JDAmountFormat   string // br (default) | dot
	ValidationMinLen int
	Retention        time.Duration
	ProgressTTL      time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DiffBatchSize:    cfg.Job.DiffBatchSize,
		ReportBatchSize:  cfg.Job.ReportBatchSize,
		MaxConcurrent:    cfg.Job.MaxConcurrent,
		SniffSampleSize:  cfg.Job.SniffSampleSize,
		JDDelimiter:      config.Delimiter(cfg.Ledger.JDDelimiter),
		CoreDelimiter:    config.Delimiter(cfg.Ledger.CoreDelimiter),
		JDOperations:     cfg.Ledger.JDOperations,
		JDAmountFormat:   cfg.Ledger.JDAmountFormat,
		ValidationMinLen: cfg.Ledger.ValidationMinLen,
		Retention:        cfg.Storage.Retention(),
		ProgressTTL:      cfg.Progress.TTL(),
	}
}

type reconciliationUsecase struct {
	tracker *progress.Tracker
	locker  *locker.Locker
	staging *storage.Staging
	writer  *report.Writer
	opts    Options

	jdAmount func(string) decimal.Decimal

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewReconciliationUsecase(tracker *progress.Tracker, l *locker.Locker, staging *storage.Staging, opts Options) ReconciliationUsecase {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	if opts.ProgressTTL <= 0 {
		opts.ProgressTTL = opts.Retention
	}
	jdAmount, err := utils.AmountParser(opts.JDAmountFormat)
	if err != nil {
		log.Warnf("[ReconcileJob] %v, reading JD amounts as %s", err, consts.AmountFormatBR)
		jdAmount = utils.ParseAmount
	}
	return &reconciliationUsecase{
		tracker:  tracker,
		locker:   l,
		staging:  staging,
		writer:   report.NewWriter(opts.ReportBatchSize, opts.ValidationMinLen),
		opts:     opts,
		jdAmount: jdAmount,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

func (u *reconciliationUsecase) jdSource(aggregate bool) ledger.Source {
	return ledger.Source{
		Side:       consts.SideJD,
		Delimiter:  u.opts.JDDelimiter,
		SampleSize: u.opts.SniffSampleSize,
		Decode:     ledger.JDLayout{Operations: u.opts.JDOperations, Amount: u.jdAmount}.Decode,
		Aggregate:  aggregate,
	}
}

func (u *reconciliationUsecase) coreSource() ledger.Source {
	return ledger.Source{
		Side:       consts.SideCore,
		Delimiter:  u.opts.CoreDelimiter,
		SampleSize: u.opts.SniffSampleSize,
		Decode:     ledger.DecodeCore,
	}
}

func (u *reconciliationUsecase) StageUpload(src io.Reader, originalName string) (string, error) {
	return u.staging.Save(src, originalName)
}

func (u *reconciliationUsecase) DiscardUploads(paths ...string) {
	u.staging.Remove(paths...)
}
