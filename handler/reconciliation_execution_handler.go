package handler

import (
	"context"
	"errors"
)

var errNothingToClean = errors.New("nothing to clean")

// ReconciliationHousekeeping runs one janitor pass. It reports
// errNothingToClean when the pass found no stale job or file.
func (h *ReconciliationHandler) ReconciliationHousekeeping(ctx context.Context) error {
	res, err := h.Usecase.Housekeep(ctx)
	if err != nil {
		return err
	}
	if res.EvictedJobs == 0 && res.SweptFiles == 0 {
		return errNothingToClean
	}
	return nil
}

// IsNothingToClean reports whether err only says a janitor pass was idle.
func IsNothingToClean(err error) bool {
	return errors.Is(err, errNothingToClean)
}
