package verificationRepository

import (
	"FaceGate/internal/api/verification"
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

type FaceReferenceDB struct {
	UserID      sql.NullString  `db:"user_id"`
	Descriptor  pq.Float64Array `db:"descriptor"`
	SampleCount sql.NullInt64   `db:"sample_count"`
	SnapshotURL sql.NullString  `db:"snapshot_url"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r *referenceRepository) UpsertReference(c context.Context, reference entity.FaceReference) error {
	requestID := contextPkg.GetRequestID(c)
	now := time.Now()

	argsKV := map[string]interface{}{
		"user_id":      reference.UserID,
		"descriptor":   pq.Float64Array(reference.Descriptor),
		"sample_count": reference.SampleCount,
		"snapshot_url": sql.NullString{String: reference.SnapshotURL, Valid: reference.SnapshotURL != ""},
		"created_at":   now,
		"updated_at":   now,
	}

	query, args, err := sqlx.Named(queryUpsertReference, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for UpsertReference")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    reference.UserID,
			"error":      err.Error(),
		}).Error("Database error when saving face reference")
		return err
	}

	return nil
}

func (r *referenceRepository) GetReferenceByUserID(c context.Context, userID string) (entity.FaceReference, error) {
	requestID := contextPkg.GetRequestID(c)
	var reference FaceReferenceDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetReferenceByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReferenceByUserID named query preparation err")
		return entity.FaceReference{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
			}).Debug("GetReferenceByUserID no rows found")
			return entity.FaceReference{}, verification.ErrReferenceNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReferenceByUserID execution err")
		return entity.FaceReference{}, err
	}

	return r.makeFaceReference(reference), nil
}

func (r *referenceRepository) DeleteReference(c context.Context, userID string) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryDeleteReference, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteReference named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteReference execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return verification.ErrReferenceNotFound
	}

	return nil
}

func (r *referenceRepository) makeFaceReference(db FaceReferenceDB) entity.FaceReference {
	descriptor := make(entity.FaceDescriptor, len(db.Descriptor))
	copy(descriptor, db.Descriptor)

	return entity.FaceReference{
		UserID:      db.UserID.String,
		Descriptor:  descriptor,
		SampleCount: int(db.SampleCount.Int64),
		SnapshotURL: db.SnapshotURL.String,
		CreatedAt:   db.CreatedAt,
		UpdatedAt:   db.UpdatedAt,
	}
}
