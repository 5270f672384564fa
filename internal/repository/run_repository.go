package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// RunRepository persists generation runs. The table holds at most one row:
// each completed run replaces the previous one inside a single transaction.
type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// ReplaceLatest atomically swaps the stored run for the given one.
func (r *RunRepository) ReplaceLatest(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	keys, err := json.Marshal(run.ScheduleKeys)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM generation_runs`); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO generation_runs (id, ran_at, schedule_keys, partial, total_found, stats)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.RanAt, keys, run.Partial, run.TotalFound, run.StatsJSON,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetLatest loads the stored run. Callers receive sql.ErrNoRows untouched
// when no run has been persisted yet.
func (r *RunRepository) GetLatest(ctx context.Context) (*models.GenerationRun, error) {
	var run models.GenerationRun
	var keys []byte
	err := r.db.QueryRowxContext(ctx, `
		SELECT id, ran_at, schedule_keys, partial, total_found, stats
		FROM generation_runs
		ORDER BY ran_at DESC
		LIMIT 1`,
	).Scan(&run.ID, &run.RanAt, &keys, &run.Partial, &run.TotalFound, &run.StatsJSON)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		if err := json.Unmarshal(keys, &run.ScheduleKeys); err != nil {
			return nil, err
		}
	}
	return &run, nil
}
