package dao

import (
	"github.com/radhian/ledger-reconciliation/infra/db/model"

	"github.com/jinzhu/gorm"
)

type DaoMethod interface {
	GetReconciliationProcessLogByJobID(jobID string) (model.ReconciliationProcessLog, error)
	GetReconciliationProcessLogUpdatedBefore(updateTime int64) ([]model.ReconciliationProcessLog, error)
	SaveReconciliationProcessLog(logEntry *model.ReconciliationProcessLog) error
	TakeReconciliationProcessLog(jobID, status string) (model.ReconciliationProcessLog, error)
	DeleteReconciliationProcessLog(jobID string) error
}

type dao struct {
	db *gorm.DB
}

func NewDaoMethod(db *gorm.DB) DaoMethod {
	return &dao{db: db}
}
