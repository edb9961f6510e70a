package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/progress"
)

// GetProgress returns the state of a job. Unknown ids yield a "not started"
// state instead of an error.
func (u *reconciliationUsecase) GetProgress(ctx context.Context, jobID string) (entity.JobProgress, error) {
	state, err := u.tracker.Get(ctx, jobID)
	if errors.Is(err, progress.ErrNotFound) {
		return entity.JobProgress{
			Status:  consts.StatusPending,
			Percent: consts.ProgressCreated,
			Stage:   consts.StageWaiting,
		}, nil
	}
	if err != nil {
		return entity.JobProgress{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return state, nil
}

// ProbeResult reports whether the result of jobID can be downloaded: the job
// is done and its report is still on disk.
func (u *reconciliationUsecase) ProbeResult(ctx context.Context, jobID string) bool {
	state, err := u.tracker.Get(ctx, jobID)
	if err != nil || state.Status != consts.StatusDone {
		return false
	}
	return u.staging.Exists(state.ArtifactPath)
}

// ConsumeResult hands out the report of a finished job exactly once. The
// report is opened before the tracker entry is taken, so a missing file
// leaves the entry in place. The file is deleted when the returned reader is
// closed.
func (u *reconciliationUsecase) ConsumeResult(ctx context.Context, jobID string) (io.ReadSeekCloser, error) {
	state, err := u.tracker.Get(ctx, jobID)
	if errors.Is(err, progress.ErrNotFound) {
		return nil, ErrResultNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume result: %w", err)
	}
	if state.Status != consts.StatusDone {
		return nil, ErrResultNotReady
	}

	f, err := u.staging.OpenEphemeral(state.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotReady, err)
	}

	if _, err := u.tracker.Consume(ctx, jobID); err != nil {
		// Another request took the entry first; its reader owns the file.
		f.Release()
		if errors.Is(err, progress.ErrNotFound) {
			return nil, ErrResultNotReady
		}
		return nil, fmt.Errorf("failed to consume result: %w", err)
	}
	return f, nil
}
