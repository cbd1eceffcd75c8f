package attendanceRepository

import (
	"FaceGate/internal/api/attendance"
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type AttendanceRecordDB struct {
	ID                 sql.NullString  `db:"id"`
	UserID             sql.NullString  `db:"user_id"`
	ClockInAt          time.Time       `db:"clock_in_at"`
	ClockOutAt         sql.NullTime    `db:"clock_out_at"`
	ClockInSimilarity  sql.NullFloat64 `db:"clock_in_similarity"`
	ClockOutSimilarity sql.NullFloat64 `db:"clock_out_similarity"`
	Latitude           sql.NullFloat64 `db:"latitude"`
	Longitude          sql.NullFloat64 `db:"longitude"`
	DistanceMeters     sql.NullFloat64 `db:"distance_meters"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func (r *attendanceRepository) CreateRecord(c context.Context, record entity.AttendanceRecord) error {
	requestID := contextPkg.GetRequestID(c)

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = record.ClockInAt
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	argsKV := map[string]interface{}{
		"id":                  record.ID,
		"user_id":             record.UserID,
		"clock_in_at":         record.ClockInAt,
		"clock_in_similarity": record.ClockInSimilarity,
		"latitude":            nullFloat(record.Latitude),
		"longitude":           nullFloat(record.Longitude),
		"distance_meters":     nullFloat(record.DistanceMeters),
		"created_at":          createdAt,
		"updated_at":          updatedAt,
	}

	query, args, err := sqlx.Named(queryCreateRecord, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateRecord")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    record.UserID,
			}).Warn("Open attendance record already exists")
			return attendance.ErrAlreadyClockedIn
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating attendance record")
		return err
	}

	return nil
}

func (r *attendanceRepository) GetOpenRecord(c context.Context, userID string) (entity.AttendanceRecord, error) {
	requestID := contextPkg.GetRequestID(c)
	var record AttendanceRecordDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetOpenRecord, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetOpenRecord named query preparation err")
		return entity.AttendanceRecord{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.AttendanceRecord{}, attendance.ErrRecordNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetOpenRecord execution err")
		return entity.AttendanceRecord{}, err
	}

	return makeAttendanceRecord(record), nil
}

func (r *attendanceRepository) CloseRecord(c context.Context, id string, clockOutAt time.Time, similarity float64) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"id":                   id,
		"clock_out_at":         clockOutAt,
		"clock_out_similarity": similarity,
		"updated_at":           clockOutAt,
	}

	query, args, err := sqlx.Named(queryCloseRecord, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CloseRecord named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CloseRecord execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("CloseRecord no open record")
		return attendance.ErrNotClockedIn
	}

	return nil
}

func (r *attendanceRepository) GetRecordsByUserID(c context.Context, userID string, limit int) ([]entity.AttendanceRecord, error) {
	requestID := contextPkg.GetRequestID(c)
	var records []AttendanceRecordDB

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	}

	query, args, err := sqlx.Named(queryGetRecordsByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecordsByUserID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &records, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecordsByUserID execution err")
		return nil, err
	}

	result := make([]entity.AttendanceRecord, 0, len(records))
	for _, record := range records {
		result = append(result, makeAttendanceRecord(record))
	}

	return result, nil
}

func makeAttendanceRecord(db AttendanceRecordDB) entity.AttendanceRecord {
	record := entity.AttendanceRecord{
		ID:                 db.ID.String,
		UserID:             db.UserID.String,
		ClockInAt:          db.ClockInAt,
		ClockInSimilarity:  db.ClockInSimilarity.Float64,
		ClockOutSimilarity: floatPtr(db.ClockOutSimilarity),
		Latitude:           floatPtr(db.Latitude),
		Longitude:          floatPtr(db.Longitude),
		DistanceMeters:     floatPtr(db.DistanceMeters),
		CreatedAt:          db.CreatedAt,
		UpdatedAt:          db.UpdatedAt,
	}
	if db.ClockOutAt.Valid {
		t := db.ClockOutAt.Time
		record.ClockOutAt = &t
	}
	return record
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
