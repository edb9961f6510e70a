package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
)

type HousekeepingResult struct {
	EvictedJobs int
	SweptFiles  int
}

// Housekeep evicts job entries idle for longer than the progress TTL,
// deletes the files they reference and sweeps stale staging files. Jobs
// running in this process are never evicted.
func (u *reconciliationUsecase) Housekeep(ctx context.Context) (HousekeepingResult, error) {
	var res HousekeepingResult

	evicted, err := u.tracker.Evict(ctx, time.Now().Add(-u.opts.ProgressTTL), func(state entity.JobProgress) bool {
		return u.locker.IsProcessing(state.JobID)
	})
	for _, state := range evicted {
		u.staging.Remove(append([]string{state.ArtifactPath}, state.Inputs...)...)
	}
	res.EvictedJobs = len(evicted)
	if err != nil {
		return res, fmt.Errorf("failed to evict jobs: %w", err)
	}

	swept, err := u.staging.Sweep(u.opts.Retention)
	res.SweptFiles = swept
	if err != nil {
		return res, fmt.Errorf("failed to sweep staging: %w", err)
	}

	if res.EvictedJobs > 0 || res.SweptFiles > 0 {
		log.Infof("[Janitor] Evicted %d jobs, swept %d files", res.EvictedJobs, res.SweptFiles)
	}
	return res, nil
}
