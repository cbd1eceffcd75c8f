package verificationRepository

import (
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type VerificationAttemptDB struct {
	ID                 sql.NullString  `db:"id"`
	UserID             sql.NullString  `db:"user_id"`
	Purpose            sql.NullString  `db:"purpose"`
	Verified           sql.NullBool    `db:"verified"`
	Similarity         sql.NullFloat64 `db:"similarity"`
	Reason             sql.NullString  `db:"reason"`
	QualityScore       sql.NullFloat64 `db:"quality_score"`
	LivenessConfidence sql.NullFloat64 `db:"liveness_confidence"`
	DurationMs         sql.NullInt64   `db:"duration_ms"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (r *attemptRepository) CreateAttempt(c context.Context, attempt entity.VerificationAttempt) error {
	requestID := contextPkg.GetRequestID(c)

	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	argsKV := map[string]interface{}{
		"id":                  attempt.ID,
		"user_id":             attempt.UserID,
		"purpose":             string(attempt.Purpose),
		"verified":            attempt.Verified,
		"similarity":          nullFloat(attempt.Similarity),
		"reason":              string(attempt.Reason),
		"quality_score":       nullFloat(attempt.QualityScore),
		"liveness_confidence": nullFloat(attempt.LivenessConfidence),
		"duration_ms":         attempt.DurationMs,
		"created_at":          createdAt,
	}

	query, args, err := sqlx.Named(queryCreateAttempt, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateAttempt")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": attempt.ID,
			"error":      err.Error(),
		}).Error("Database error when recording verification attempt")
		return err
	}

	return nil
}

func (r *attemptRepository) GetAttemptsByUserID(c context.Context, userID string, limit int) ([]entity.VerificationAttempt, error) {
	requestID := contextPkg.GetRequestID(c)
	var attempts []VerificationAttemptDB

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	}

	query, args, err := sqlx.Named(queryGetAttemptsByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAttemptsByUserID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &attempts, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAttemptsByUserID execution err")
		return nil, err
	}

	result := make([]entity.VerificationAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		result = append(result, makeVerificationAttempt(attempt))
	}

	return result, nil
}

func makeVerificationAttempt(db VerificationAttemptDB) entity.VerificationAttempt {
	return entity.VerificationAttempt{
		ID:                 db.ID.String,
		UserID:             db.UserID.String,
		Purpose:            entity.VerificationPurpose(db.Purpose.String),
		Verified:           db.Verified.Bool,
		Similarity:         floatPtr(db.Similarity),
		Reason:             entity.FailureReason(db.Reason.String),
		QualityScore:       floatPtr(db.QualityScore),
		LivenessConfidence: floatPtr(db.LivenessConfidence),
		DurationMs:         db.DurationMs.Int64,
		CreatedAt:          db.CreatedAt,
	}
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
