package reconciliation

import (
	"github.com/labstack/gommon/log"
)

// TryAcquireLock claims jobID for this process.
func (u *reconciliationUsecase) TryAcquireLock(jobID string) bool {
	if !u.locker.TryLock(jobID) {
		log.Debugf("[LOCK_PROCESS] job_id:%s already in flight", jobID)
		return false
	}
	log.Debugf("[LOCK_PROCESS] job_id:%s", jobID)
	return true
}

func (u *reconciliationUsecase) UnlockProcess(jobID string) {
	u.locker.Unlock(jobID)
	log.Debugf("[UNLOCK_PROCESS] job_id:%s", jobID)
}
