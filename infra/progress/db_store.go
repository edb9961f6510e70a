package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/infra/db/dao"
	"github.com/radhian/ledger-reconciliation/infra/db/model"
)

// DBStore keeps progress in the reconciliation_process_logs table so that
// separate processes (HTTP server, cron worker) share one view of the jobs.
type DBStore struct {
	dao dao.DaoMethod
}

func NewDBStore(d dao.DaoMethod) *DBStore {
	return &DBStore{dao: d}
}

func (s *DBStore) Put(_ context.Context, state entity.JobProgress) error {
	row, err := toModel(state)
	if err != nil {
		return err
	}
	return s.dao.SaveReconciliationProcessLog(&row)
}

func (s *DBStore) Get(_ context.Context, jobID string) (entity.JobProgress, error) {
	row, err := s.dao.GetReconciliationProcessLogByJobID(jobID)
	if err != nil {
		return entity.JobProgress{}, notFound(err)
	}
	return fromModel(row), nil
}

func (s *DBStore) Take(_ context.Context, jobID string) (entity.JobProgress, error) {
	row, err := s.dao.TakeReconciliationProcessLog(jobID, consts.StatusDone)
	if err != nil {
		return entity.JobProgress{}, notFound(err)
	}
	return fromModel(row), nil
}

func (s *DBStore) Delete(_ context.Context, jobID string) error {
	return s.dao.DeleteReconciliationProcessLog(jobID)
}

func (s *DBStore) UpdatedBefore(_ context.Context, t time.Time) ([]entity.JobProgress, error) {
	rows, err := s.dao.GetReconciliationProcessLogUpdatedBefore(t.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list stale logs: %w", err)
	}
	out := make([]entity.JobProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func toModel(state entity.JobProgress) (model.ReconciliationProcessLog, error) {
	row := model.ReconciliationProcessLog{
		JobID:        state.JobID,
		Status:       state.Status,
		Percent:      state.Percent,
		Rows:         state.Rows,
		Stage:        state.Stage,
		ArtifactPath: state.ArtifactPath,
		CreateTime:   state.UpdatedAt.Unix(),
		UpdateTime:   state.UpdatedAt.Unix(),
	}

	if state.Summary != nil {
		b, err := json.Marshal(state.Summary)
		if err != nil {
			return row, fmt.Errorf("failed to marshal job summary: %w", err)
		}
		row.Summary = string(b)
	}
	if len(state.Inputs) > 0 {
		b, err := json.Marshal(state.Inputs)
		if err != nil {
			return row, fmt.Errorf("failed to marshal job inputs: %w", err)
		}
		row.InputFiles = string(b)
	}
	return row, nil
}

func fromModel(row model.ReconciliationProcessLog) entity.JobProgress {
	state := entity.JobProgress{
		JobID:        row.JobID,
		Status:       row.Status,
		Percent:      row.Percent,
		Rows:         row.Rows,
		Stage:        row.Stage,
		ArtifactPath: row.ArtifactPath,
		UpdatedAt:    time.Unix(row.UpdateTime, 0),
	}

	if row.Summary != "" {
		var summary entity.JobSummary
		if err := json.Unmarshal([]byte(row.Summary), &summary); err == nil {
			state.Summary = &summary
		}
	}
	if row.InputFiles != "" {
		_ = json.Unmarshal([]byte(row.InputFiles), &state.Inputs)
	}
	return state
}
