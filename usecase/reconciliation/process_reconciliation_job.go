package reconciliation

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/ledger"
	"github.com/radhian/ledger-reconciliation/infra/report"
	"github.com/radhian/ledger-reconciliation/utils"
)

// sheetRanges are the percent spans of the credit and debit sheets.
var sheetRanges = [][2]int{
	{consts.ProgressMatchEnd, consts.ProgressCreditSheet},
	{consts.ProgressCreditSheet, consts.ProgressDebitSheet},
}

type jobHooks struct {
	advance func(percent int, stage string)
	rows    func(n int64)
}

// ProcessReconciliationJob runs a report job to completion, recording every
// checkpoint in the tracker. The staged inputs are removed when it returns.
func (u *reconciliationUsecase) ProcessReconciliationJob(ctx context.Context, req entity.ReportJobRequest) (err error) {
	jobID := req.JobID
	outPath := u.staging.ReportPath(jobID)

	defer u.staging.Remove(req.JDPath, req.CorePath)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[ReconcileJob] Panic recovered for job %s: %v", jobID, r)
			err = fmt.Errorf("unexpected error: %v", r)
		}
		if err != nil {
			u.staging.Remove(outPath)
			if failErr := u.tracker.Fail(context.WithoutCancel(ctx), jobID, err); failErr != nil {
				log.Errorf("[ReconcileJob] Could not mark job %s as failed: %v", jobID, failErr)
			}
		}
	}()

	log.Infof("[ReconcileJob] Starting job %s", jobID)

	hooks := jobHooks{
		advance: func(percent int, stage string) {
			if err := u.tracker.Advance(ctx, jobID, percent, stage); err != nil {
				log.Warnf("[ReconcileJob] Failed to record progress of job %s: %v", jobID, err)
			}
		},
		rows: func(n int64) {
			if err := u.tracker.SetRows(ctx, jobID, n); err != nil {
				log.Warnf("[ReconcileJob] Failed to record rows of job %s: %v", jobID, err)
			}
		},
	}

	summary, err := u.generateReport(ctx, req.JDPath, req.CorePath, outPath, hooks)
	if err != nil {
		log.Errorf("[ReconcileJob] Job %s failed: %v", jobID, err)
		return err
	}

	if err := u.tracker.Complete(ctx, jobID, outPath, summary); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	log.Infof("[ReconcileJob] Job %s completed: missing in Core=%d, missing in JD=%d",
		jobID, summary.MissingInCore, summary.MissingInJD)
	return nil
}

// GenerateReport writes the report of two ledgers to outPath without
// tracking progress.
func (u *reconciliationUsecase) GenerateReport(ctx context.Context, jdPath, corePath, outPath string) (*entity.JobSummary, error) {
	return u.generateReport(ctx, jdPath, corePath, outPath, jobHooks{
		advance: func(int, string) {},
		rows:    func(int64) {},
	})
}

func (u *reconciliationUsecase) generateReport(ctx context.Context, jdPath, corePath, outPath string, hooks jobHooks) (*entity.JobSummary, error) {
	hooks.advance(consts.ProgressReadingJD, consts.StageReadingJD)
	jd, err := ledger.Load(ctx, jdPath, u.jdSource(true))
	if err != nil {
		return nil, fmt.Errorf("failed to read JD ledger: %w", err)
	}
	hooks.rows(jd.Rows)

	hooks.advance(consts.ProgressJDLoaded, consts.StageReadingCore)
	core, err := ledger.Load(ctx, corePath, u.coreSource())
	if err != nil {
		return nil, fmt.Errorf("failed to read Core ledger: %w", err)
	}
	hooks.rows(jd.Rows + core.Rows)

	hooks.advance(consts.ProgressCoreLoaded, consts.StageMatching)
	hooks.advance(consts.ProgressMatchStart, consts.StageMatching)
	missingInCore, missingInJD, err := Diff(ctx, jd, core, DiffOptions{
		BatchSize: u.opts.DiffBatchSize,
		OnProgress: func(done, total int) {
			hooks.advance(utils.Scale(done, total, consts.ProgressMatchStart, consts.ProgressMatchEnd), consts.StageMatching)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match ledgers: %w", err)
	}

	hooks.advance(consts.ProgressMatchEnd, consts.StageWriting)
	err = u.writer.Write(ctx, outPath, buildSheets(core, jd, u.writer.MinLen), func(sheet, done, total int) {
		span := sheetRanges[sheet]
		hooks.advance(utils.Scale(done, total, span[0], span[1]), consts.StageWriting)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &entity.JobSummary{
		JDRecords:     jd.Len(),
		CoreRecords:   core.Len(),
		MissingInCore: len(missingInCore),
		MissingInJD:   len(missingInJD),
		JDSummary:     jd.Summary,
	}, nil
}

// buildSheets lays the reference ledger ids next to the comparison ledger
// ids, one sheet per direction. Ids come from the indexed ledgers: each
// appears once, at its first position, with the direction of its last row.
func buildSheets(reference, comparison *entity.Ledger, minLen int) []report.Sheet {
	return []report.Sheet{
		{
			Name: report.SheetCredit,
			Rows: report.Rows(reference.Identifiers(entity.DirectionCredit), comparison.Identifiers(entity.DirectionCredit), minLen),
		},
		{
			Name: report.SheetDebit,
			Rows: report.Rows(reference.Identifiers(entity.DirectionDebit), comparison.Identifiers(entity.DirectionDebit), minLen),
		},
	}
}
