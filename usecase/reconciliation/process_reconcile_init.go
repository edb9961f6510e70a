package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/progress"
)

// ProcessReconciliationInit registers a report job and starts it in the
// background. It returns the job id as soon as the job is registered. The
// staged inputs belong to the job from here on and are discarded if it
// cannot be registered.
func (u *reconciliationUsecase) ProcessReconciliationInit(ctx context.Context, req entity.ReportJobRequest) (string, error) {
	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	if !u.TryAcquireLock(req.JobID) {
		u.staging.Remove(req.JDPath, req.CorePath)
		return "", ErrJobInUse
	}

	if err := u.tracker.Start(ctx, req.JobID, []string{req.JDPath, req.CorePath}); err != nil {
		u.UnlockProcess(req.JobID)
		u.staging.Remove(req.JDPath, req.CorePath)
		if errors.Is(err, progress.ErrJobExists) {
			return "", ErrJobInUse
		}
		return "", fmt.Errorf("failed to register job: %w", err)
	}

	// The job outlives the request that submitted it.
	jobCtx := context.WithoutCancel(ctx)

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer u.UnlockProcess(req.JobID)

		if err := u.sem.Acquire(jobCtx, 1); err != nil {
			log.Errorf("[ReconcileJob] Could not schedule job %s: %v", req.JobID, err)
			return
		}
		defer u.sem.Release(1)

		if err := u.ProcessReconciliationJob(jobCtx, req); err != nil {
			log.Warnf("[ReconcileJob] Job %s ended with error: %v", req.JobID, err)
		}
	}()

	log.Infof("[ReconcileJob] Job %s queued", req.JobID)
	return req.JobID, nil
}

// Wait blocks until every background job has finished or ctx is done.
func (u *reconciliationUsecase) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
