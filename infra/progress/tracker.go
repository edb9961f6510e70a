package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
)

var ErrJobExists = errors.New("job id already in use")

// Tracker drives each job through created → running → done | failed.
// Percent never decreases and stays below 100 until the job is done.
type Tracker struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Start registers a new job. It fails if jobID is already tracked.
func (t *Tracker) Start(ctx context.Context, jobID string, inputs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.store.Get(ctx, jobID); err == nil {
		return ErrJobExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return t.store.Put(ctx, entity.JobProgress{
		JobID:     jobID,
		Status:    consts.StatusCreated,
		Percent:   consts.ProgressCreated,
		Stage:     consts.StageQueued,
		Inputs:    inputs,
		UpdatedAt: t.now(),
	})
}

// Advance moves a running job forward. Updates for unknown or finished jobs
// are dropped.
func (t *Tracker) Advance(ctx context.Context, jobID string, percent int, stage string) error {
	return t.update(ctx, jobID, func(state *entity.JobProgress) {
		state.Status = consts.StatusRunning
		if percent > state.Percent {
			state.Percent = percent
		}
		if state.Percent >= consts.ProgressDone {
			state.Percent = consts.ProgressDone - 1
		}
		if stage != "" {
			state.Stage = stage
		}
	})
}

// SetRows records how many source rows the job has read so far.
func (t *Tracker) SetRows(ctx context.Context, jobID string, rows int64) error {
	return t.update(ctx, jobID, func(state *entity.JobProgress) {
		state.Rows = rows
	})
}

func (t *Tracker) Complete(ctx context.Context, jobID, artifactPath string, summary *entity.JobSummary) error {
	return t.update(ctx, jobID, func(state *entity.JobProgress) {
		state.Status = consts.StatusDone
		state.Percent = consts.ProgressDone
		state.Stage = consts.StageDone
		state.ArtifactPath = artifactPath
		state.Summary = summary
	})
}

func (t *Tracker) Fail(ctx context.Context, jobID string, cause error) error {
	return t.update(ctx, jobID, func(state *entity.JobProgress) {
		state.Status = consts.StatusFailed
		state.Stage = fmt.Sprintf("%s: %v", consts.StageFailed, cause)
	})
}

// Get returns ErrNotFound for jobs that never existed and for jobs whose
// result was already consumed or evicted.
func (t *Tracker) Get(ctx context.Context, jobID string) (entity.JobProgress, error) {
	return t.store.Get(ctx, jobID)
}

// Consume removes a done job and returns its final state. A second call for
// the same job returns ErrNotFound.
func (t *Tracker) Consume(ctx context.Context, jobID string) (entity.JobProgress, error) {
	return t.store.Take(ctx, jobID)
}

// Evict drops every entry not updated since before, except the ones skip
// keeps, and returns what it dropped so the caller can clean up the files
// they point to.
func (t *Tracker) Evict(ctx context.Context, before time.Time, skip func(entity.JobProgress) bool) ([]entity.JobProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stale, err := t.store.UpdatedBefore(ctx, before)
	if err != nil {
		return nil, err
	}

	evicted := make([]entity.JobProgress, 0, len(stale))
	for _, state := range stale {
		if skip != nil && skip(state) {
			continue
		}
		if err := t.store.Delete(ctx, state.JobID); err != nil {
			return evicted, fmt.Errorf("failed to evict job %s: %w", state.JobID, err)
		}
		evicted = append(evicted, state)
	}
	return evicted, nil
}

func (t *Tracker) update(ctx context.Context, jobID string, fn func(state *entity.JobProgress)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.store.Get(ctx, jobID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if state.Terminal() {
		return nil
	}

	fn(&state)
	state.UpdatedAt = t.now()
	return t.store.Put(ctx, state)
}
