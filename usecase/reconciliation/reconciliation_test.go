package reconciliation

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/locker"
	"github.com/radhian/ledger-reconciliation/infra/progress"
	"github.com/radhian/ledger-reconciliation/infra/report"
	"github.com/radhian/ledger-reconciliation/infra/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// recordingStore remembers every percent written for each job.
type recordingStore struct {
	*progress.MemoryStore
	mu       sync.Mutex
	percents map[string][]int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: progress.NewMemoryStore(), percents: make(map[string][]int)}
}

func (s *recordingStore) Put(ctx context.Context, state entity.JobProgress) error {
	s.mu.Lock()
	s.percents[state.JobID] = append(s.percents[state.JobID], state.Percent)
	s.mu.Unlock()
	return s.MemoryStore.Put(ctx, state)
}

func jdRow(e2e, nature, amount, status string) string {
	fields := make([]string, 19)
	fields[0] = "01/02/2025"
	fields[1] = "GERAL"
	fields[2] = e2e
	fields[5] = nature
	fields[6] = amount
	fields[18] = status
	return strings.Join(fields, ";")
}

func jdFixture() string {
	return strings.Join([]string{
		"header",
		jdRow("E2E00000000001", "CREDITO", "10,00", "EFETIVADO"),
		jdRow("E2E00000000002", "DEBITO", "5,00", "EFETIVADO"),
		jdRow("E2E00000000009", "DEBITO", "1,00", "CANCELADO"),
	}, "\n") + "\n"
}

func coreFixture() string {
	return "TIPO;E2E;DATA;VALOR\n" +
		"C;E2E00000000001;01/02/2025;10,00\n" +
		"D;E2E00000000003;01/02/2025;7,00\n"
}

type fixture struct {
	uc      ReconciliationUsecase
	store   *recordingStore
	staging *storage.Staging
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	staging, err := storage.NewStaging(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	store := newRecordingStore()
	if opts.JDDelimiter == 0 {
		opts.JDDelimiter = ';'
	}
	uc := NewReconciliationUsecase(progress.NewTracker(store), locker.New(), staging, opts)
	return fixture{uc: uc, store: store, staging: staging}
}

func (f fixture) stage(t *testing.T, name, content string) string {
	t.Helper()
	path, err := f.uc.StageUpload(strings.NewReader(content), name)
	require.NoError(t, err)
	return path
}

func (f fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, f.uc.Wait(ctx))
}

func TestProcessReconciliation(t *testing.T) {
	f := newFixture(t, Options{})
	jdPath := f.stage(t, "jd.csv", jdFixture())
	corePath := f.stage(t, "core.csv", coreFixture())

	res, err := f.uc.ProcessReconciliation(context.Background(), jdPath, corePath)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.JDSummary.Credit.Count)
	assert.True(t, decimal.NewFromInt(10).Equal(res.JDSummary.Credit.Total))
	assert.Equal(t, int64(1), res.JDSummary.Debit.Count)
	assert.True(t, decimal.NewFromInt(5).Equal(res.JDSummary.Debit.Total))

	require.Len(t, res.Discrepancies, 2)
	assert.Equal(t, "E2E00000000002", res.Discrepancies[0].Identifier)
	assert.Equal(t, entity.DirectionDebit, res.Discrepancies[0].Direction)
	assert.Equal(t, consts.SideCore, res.Discrepancies[0].MissingFrom)
	assert.Equal(t, "E2E00000000003", res.Discrepancies[1].Identifier)
	assert.Equal(t, consts.SideJD, res.Discrepancies[1].MissingFrom)
	assert.True(t, decimal.NewFromInt(7).Equal(res.Discrepancies[1].Amount))

	// synchronous runs leave their inputs alone
	assert.FileExists(t, jdPath)
	assert.FileExists(t, corePath)
}

func TestProcessReconciliation_DotAmountFormat(t *testing.T) {
	f := newFixture(t, Options{JDAmountFormat: consts.AmountFormatDot})
	jd := "header\n" + jdRow("E2E00000000001", "CREDITO", "10.50", "EFETIVADO") + "\n"

	res, err := f.uc.ProcessReconciliation(context.Background(), f.stage(t, "jd.csv", jd), f.stage(t, "core.csv", coreFixture()))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(res.JDSummary.Credit.Total), res.JDSummary.Credit.Total.String())
}

func TestProcessReconciliation_MissingFile(t *testing.T) {
	f := newFixture(t, Options{})
	corePath := f.stage(t, "core.csv", coreFixture())

	_, err := f.uc.ProcessReconciliation(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), corePath)
	assert.Error(t, err)
}

func TestReportJob_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{DiffBatchSize: 1, ReportBatchSize: 1})
	jdPath := f.stage(t, "jd.csv", jdFixture())
	corePath := f.stage(t, "core.csv", coreFixture())

	jobID, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{JobID: "job-1", JDPath: jdPath, CorePath: corePath})
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	f.wait(t)

	state, err := f.uc.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusDone, state.Status)
	assert.Equal(t, 100, state.Percent)
	assert.Equal(t, int64(5), state.Rows)
	require.NotNil(t, state.Summary)
	assert.Equal(t, 2, state.Summary.JDRecords)
	assert.Equal(t, 1, state.Summary.MissingInCore)
	assert.Equal(t, 1, state.Summary.MissingInJD)

	percents := f.store.percents[jobID]
	require.NotEmpty(t, percents)
	assert.Equal(t, 0, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "percent went backwards: %v", percents)
	}

	assert.NoFileExists(t, jdPath)
	assert.NoFileExists(t, corePath)

	assert.True(t, f.uc.ProbeResult(ctx, jobID))
	assert.True(t, f.uc.ProbeResult(ctx, jobID), "probing has no side effects")

	rc, err := f.uc.ConsumeResult(ctx, jobID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	book, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{report.SheetCredit, report.SheetDebit}, book.GetSheetList())
	debit, err := book.GetRows(report.SheetDebit)
	require.NoError(t, err)
	require.Len(t, debit, 2)
	assert.Equal(t, "E2E00000000003", debit[1][0])
	assert.Equal(t, "E2E00000000002", debit[1][1])

	assert.NoFileExists(t, f.staging.ReportPath(jobID))
	assert.False(t, f.uc.ProbeResult(ctx, jobID))
	_, err = f.uc.ConsumeResult(ctx, jobID)
	assert.ErrorIs(t, err, ErrResultNotReady)

	state, err = f.uc.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusPending, state.Status)
	assert.Equal(t, consts.StageWaiting, state.Stage)
}

func TestReportJob_SimilarIDsKeepSeparateReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	ids := []string{"a.b", "a_b", "a/b"}
	for _, id := range ids {
		_, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
			JobID:    id,
			JDPath:   f.stage(t, "jd.csv", jdFixture()),
			CorePath: f.stage(t, "core.csv", coreFixture()),
		})
		require.NoError(t, err)
	}
	f.wait(t)

	assert.NotEqual(t, f.staging.ReportPath("a.b"), f.staging.ReportPath("a_b"))

	rc, err := f.uc.ConsumeResult(ctx, "a.b")
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	for _, id := range ids[1:] {
		assert.True(t, f.uc.ProbeResult(ctx, id), id)
		rc, err := f.uc.ConsumeResult(ctx, id)
		require.NoError(t, err, id)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.NotEmpty(t, body, id)
	}
}

func TestReportJob_MissingArtifactKeepsEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	jobID, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JobID:    "swept",
		JDPath:   f.stage(t, "jd.csv", jdFixture()),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	f.wait(t)

	artifact := f.staging.ReportPath(jobID)
	content, err := os.ReadFile(artifact)
	require.NoError(t, err)
	require.NoError(t, os.Remove(artifact))

	assert.False(t, f.uc.ProbeResult(ctx, jobID))
	_, err = f.uc.ConsumeResult(ctx, jobID)
	assert.ErrorIs(t, err, ErrResultNotReady)

	state, err := f.uc.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusDone, state.Status, "a failed download leaves the job in place")

	// once the report is back it can still be downloaded exactly once
	require.NoError(t, os.WriteFile(artifact, content, 0o644))
	assert.True(t, f.uc.ProbeResult(ctx, jobID))
	rc, err := f.uc.ConsumeResult(ctx, jobID)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.NoFileExists(t, artifact)
	_, err = f.uc.ConsumeResult(ctx, jobID)
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestConsumeResult_ConcurrentDownloadsServeOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	jobID, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JDPath:   f.stage(t, "jd.csv", jdFixture()),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	f.wait(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		served  int
		readers []io.ReadSeekCloser
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc, err := f.uc.ConsumeResult(ctx, jobID)
			if err != nil {
				return
			}
			mu.Lock()
			served++
			readers = append(readers, rc)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, served)
	for _, rc := range readers {
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.NotEmpty(t, body)
		require.NoError(t, rc.Close())
	}
	assert.NoFileExists(t, f.staging.ReportPath(jobID))
}

func TestReportJob_GeneratedID(t *testing.T) {
	f := newFixture(t, Options{})
	jobID, err := f.uc.ProcessReconciliationInit(context.Background(), entity.ReportJobRequest{
		JDPath:   f.stage(t, "jd.csv", jdFixture()),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	assert.Len(t, jobID, 36)
	f.wait(t)
}

func TestReportJob_IDInUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JobID:    "dup",
		JDPath:   f.stage(t, "jd.csv", jdFixture()),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	f.wait(t)

	jdPath := f.stage(t, "jd.csv", jdFixture())
	_, err = f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JobID:    "dup",
		JDPath:   jdPath,
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	assert.ErrorIs(t, err, ErrJobInUse)
	assert.NoFileExists(t, jdPath)
}

func TestReportJob_UnreadableInputFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	jobID, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JobID:    "broken",
		JDPath:   filepath.Join(t.TempDir(), "missing.csv"),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	f.wait(t)

	state, err := f.uc.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusFailed, state.Status)
	assert.True(t, strings.HasPrefix(state.Stage, consts.StageFailed+": "), state.Stage)
	assert.Less(t, state.Percent, 100)
	assert.False(t, f.uc.ProbeResult(ctx, jobID))

	_, err = f.uc.ConsumeResult(ctx, jobID)
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t, Options{})
	out := filepath.Join(t.TempDir(), "report.xlsx")

	summary, err := f.uc.GenerateReport(context.Background(),
		f.stage(t, "jd.csv", jdFixture()), f.stage(t, "core.csv", coreFixture()), out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CoreRecords)
	assert.FileExists(t, out)
}

func TestHousekeep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{ProgressTTL: time.Nanosecond, Retention: time.Hour})

	jobID, err := f.uc.ProcessReconciliationInit(ctx, entity.ReportJobRequest{
		JDPath:   f.stage(t, "jd.csv", jdFixture()),
		CorePath: f.stage(t, "core.csv", coreFixture()),
	})
	require.NoError(t, err)
	f.wait(t)
	require.FileExists(t, f.staging.ReportPath(jobID))

	stale := filepath.Join(f.staging.Dir, "stale.csv")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	time.Sleep(time.Millisecond)
	res, err := f.uc.Housekeep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EvictedJobs)
	assert.Equal(t, 1, res.SweptFiles)

	assert.NoFileExists(t, f.staging.ReportPath(jobID))
	assert.NoFileExists(t, stale)
	assert.False(t, f.uc.ProbeResult(ctx, jobID))
}

func TestTryAcquireLock(t *testing.T) {
	f := newFixture(t, Options{})
	assert.True(t, f.uc.TryAcquireLock("a"))
	assert.False(t, f.uc.TryAcquireLock("a"))
	f.uc.UnlockProcess("a")
	assert.True(t, f.uc.TryAcquireLock("a"))
}
