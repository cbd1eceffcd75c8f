package attendanceRepository

import (
	"FaceGate/internal/entity"
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeAttendanceRecord(t *testing.T) {
	in := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	open := makeAttendanceRecord(AttendanceRecordDB{
		ID:                sql.NullString{String: "r1", Valid: true},
		UserID:            sql.NullString{String: "u1", Valid: true},
		ClockInAt:         in,
		ClockInSimilarity: sql.NullFloat64{Float64: 0.8, Valid: true},
	})
	assert.True(t, open.Open())
	assert.Nil(t, open.Latitude)
	assert.Nil(t, open.ClockOutSimilarity)

	out := in.Add(8 * time.Hour)
	closed := makeAttendanceRecord(AttendanceRecordDB{
		ID:                 sql.NullString{String: "r1", Valid: true},
		ClockInAt:          in,
		ClockOutAt:         sql.NullTime{Time: out, Valid: true},
		ClockOutSimilarity: sql.NullFloat64{Float64: 0.7, Valid: true},
		Latitude:           sql.NullFloat64{Float64: -6.2, Valid: true},
	})
	assert.False(t, closed.Open())
	require.NotNil(t, closed.ClockOutAt)
	assert.Equal(t, out, *closed.ClockOutAt)
	require.NotNil(t, closed.Latitude)
	assert.Equal(t, -6.2, *closed.Latitude)
}

// recordingExecutor captures the arguments of the last ExecContext call.
type recordingExecutor struct {
	sqlx.ExtContext
	args []interface{}
}

func (e *recordingExecutor) ExecContext(_ context.Context, _ string, args ...interface{}) (sql.Result, error) {
	e.args = args
	return driver.RowsAffected(1), nil
}

func (e *recordingExecutor) Rebind(query string) string {
	return query
}

func (e *recordingExecutor) SelectContext(_ context.Context, _ interface{}, _ string, _ ...interface{}) error {
	return nil
}

func (e *recordingExecutor) QueryRowxContext(_ context.Context, _ string, _ ...interface{}) *sqlx.Row {
	return nil
}

func newRecordingRepository() (*attendanceRepository, *recordingExecutor) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	exec := &recordingExecutor{}
	return &attendanceRepository{q: exec, log: log}, exec
}

func TestRecordTimestampsComeFromCaller(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("create", func(t *testing.T) {
		repo, exec := newRecordingRepository()
		require.NoError(t, repo.CreateRecord(context.Background(), entity.AttendanceRecord{
			ID:                "r1",
			UserID:            "u1",
			ClockInAt:         at,
			ClockInSimilarity: 0.8,
			CreatedAt:         at,
			UpdatedAt:         at,
		}))

		require.Len(t, exec.args, 9)
		assert.Equal(t, at, exec.args[7], "created_at")
		assert.Equal(t, at, exec.args[8], "updated_at")
	})

	t.Run("close", func(t *testing.T) {
		repo, exec := newRecordingRepository()
		out := at.Add(8 * time.Hour)
		require.NoError(t, repo.CloseRecord(context.Background(), "r1", out, 0.7))

		assert.Equal(t, []interface{}{out, 0.7, out, "r1"}, exec.args)
	})
}
