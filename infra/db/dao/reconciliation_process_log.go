package dao

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/radhian/ledger-reconciliation/infra/db/model"
)

func (d *dao) GetReconciliationProcessLogByJobID(jobID string) (model.ReconciliationProcessLog, error) {
	var logEntry model.ReconciliationProcessLog
	if err := d.db.Where("job_id = ?", jobID).First(&logEntry).Error; err != nil {
		return logEntry, fmt.Errorf("log not found: %w", err)
	}
	return logEntry, nil
}

func (d *dao) GetReconciliationProcessLogUpdatedBefore(updateTime int64) ([]model.ReconciliationProcessLog, error) {
	var logs []model.ReconciliationProcessLog
	if err := d.db.
		Where("update_time < ?", updateTime).
		Order("update_time ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// SaveReconciliationProcessLog inserts the entry or overwrites the row that
// already holds its job id.
func (d *dao) SaveReconciliationProcessLog(logEntry *model.ReconciliationProcessLog) error {
	var existing model.ReconciliationProcessLog
	err := d.db.Select("id, create_time").Where("job_id = ?", logEntry.JobID).First(&existing).Error
	if gorm.IsRecordNotFoundError(err) {
		if err := d.db.Create(logEntry).Error; err != nil {
			return fmt.Errorf("failed to create log: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up log: %w", err)
	}

	logEntry.ID = existing.ID
	logEntry.CreateTime = existing.CreateTime
	if err := d.db.Save(logEntry).Error; err != nil {
		return fmt.Errorf("failed to update log: %w", err)
	}
	return nil
}

// TakeReconciliationProcessLog deletes and returns the row for jobID when it
// has the given status. Concurrent callers serialise on the row lock, so at
// most one of them gets it.
func (d *dao) TakeReconciliationProcessLog(jobID, status string) (model.ReconciliationProcessLog, error) {
	var logEntry model.ReconciliationProcessLog
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("job_id = ? AND status = ?", jobID, status).
			First(&logEntry).Error; err != nil {
			return err
		}
		return tx.Delete(&logEntry).Error
	})
	if err != nil {
		return logEntry, fmt.Errorf("failed to take log: %w", err)
	}
	return logEntry, nil
}

func (d *dao) DeleteReconciliationProcessLog(jobID string) error {
	if err := d.db.Where("job_id = ?", jobID).Delete(&model.ReconciliationProcessLog{}).Error; err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	return nil
}
