package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

func newRunMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunRepositoryReplaceLatest(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM generation_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO generation_runs").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), []byte(`["AAA:1|BBB:2"]`), false, 1, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	run := &models.GenerationRun{
		RanAt:        time.Now().UTC(),
		ScheduleKeys: []string{"AAA:1|BBB:2"},
		TotalFound:   1,
		StatsJSON:    []byte(`{}`),
	}
	require.NoError(t, repo.ReplaceLatest(context.Background(), run))
	assert.NotEmpty(t, run.ID, "missing run ID is assigned")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryReplaceLatestRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM generation_runs").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplaceLatest(context.Background(), &models.GenerationRun{RanAt: time.Now()})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryGetLatest(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	ranAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "ran_at", "schedule_keys", "partial", "total_found", "stats"}).
		AddRow("run-1", ranAt, []byte(`["AAA:1","BBB:2"]`), true, 2, []byte(`{"totalSections":4}`))
	mock.ExpectQuery("SELECT id, ran_at, schedule_keys, partial, total_found, stats").
		WillReturnRows(rows)

	run, err := repo.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, []string{"AAA:1", "BBB:2"}, run.ScheduleKeys)
	assert.True(t, run.Partial)
	assert.Equal(t, 2, run.TotalFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryGetLatestNoRows(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectQuery("SELECT id, ran_at, schedule_keys, partial, total_found, stats").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ran_at", "schedule_keys", "partial", "total_found", "stats"}))

	_, err := repo.GetLatest(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
