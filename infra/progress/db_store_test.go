package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/db/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDao mimics the gorm DAO closely enough to exercise DBStore.
type fakeDao struct {
	mu   sync.Mutex
	rows map[string]model.ReconciliationProcessLog
}

func newFakeDao() *fakeDao {
	return &fakeDao{rows: make(map[string]model.ReconciliationProcessLog)}
}

func (f *fakeDao) GetReconciliationProcessLogByJobID(jobID string) (model.ReconciliationProcessLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok {
		return row, fmt.Errorf("log not found: %w", gorm.ErrRecordNotFound)
	}
	return row, nil
}

func (f *fakeDao) GetReconciliationProcessLogUpdatedBefore(updateTime int64) ([]model.ReconciliationProcessLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReconciliationProcessLog
	for _, row := range f.rows {
		if row.UpdateTime < updateTime {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeDao) SaveReconciliationProcessLog(logEntry *model.ReconciliationProcessLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rows[logEntry.JobID]; ok {
		logEntry.ID = existing.ID
		logEntry.CreateTime = existing.CreateTime
	} else {
		logEntry.ID = int64(len(f.rows) + 1)
	}
	f.rows[logEntry.JobID] = *logEntry
	return nil
}

func (f *fakeDao) TakeReconciliationProcessLog(jobID, status string) (model.ReconciliationProcessLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok || row.Status != status {
		return row, fmt.Errorf("failed to take log: %w", gorm.ErrRecordNotFound)
	}
	delete(f.rows, jobID)
	return row, nil
}

func (f *fakeDao) DeleteReconciliationProcessLog(jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, jobID)
	return nil
}

func TestDBStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fd := newFakeDao()
	store := NewDBStore(fd)

	updated := time.Unix(1738400000, 0)
	state := entity.JobProgress{
		JobID:        "job-1",
		Status:       consts.StatusDone,
		Percent:      100,
		Rows:         12,
		Stage:        consts.StageDone,
		ArtifactPath: "/staging/report.xlsx",
		Inputs:       []string{"/staging/jd.csv", "/staging/core.csv"},
		Summary:      &entity.JobSummary{JDRecords: 3, MissingInJD: 1},
		UpdatedAt:    updated,
	}
	require.NoError(t, store.Put(ctx, state))

	row := fd.rows["job-1"]
	assert.Equal(t, `["/staging/jd.csv","/staging/core.csv"]`, row.InputFiles)
	assert.Equal(t, updated.Unix(), row.UpdateTime)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, state.JobID, got.JobID)
	assert.Equal(t, state.Inputs, got.Inputs)
	assert.Equal(t, state.ArtifactPath, got.ArtifactPath)
	assert.Equal(t, 3, got.Summary.JDRecords)
	assert.True(t, got.UpdatedAt.Equal(updated))
}

func TestDBStore_NotFoundMapping(t *testing.T) {
	ctx := context.Background()
	store := NewDBStore(newFakeDao())

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Take(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDBStore_WithTracker(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewDBStore(newFakeDao()))

	require.NoError(t, tr.Start(ctx, "job-1", nil))
	require.NoError(t, tr.Advance(ctx, "job-1", 50, consts.StageMatching))
	require.NoError(t, tr.Complete(ctx, "job-1", "/staging/out.xlsx", nil))

	state, err := tr.Consume(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "/staging/out.xlsx", state.ArtifactPath)

	_, err = tr.Consume(ctx, "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
