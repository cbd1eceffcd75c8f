package verificationRepository

import (
	"FaceGate/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Reference: &referenceRepository{q: sqlExecutor, log: r.log},
		Attempt:   &attemptRepository{q: sqlExecutor, log: r.log},
		Commit:    commitFunc,
		Rollback:  rollbackFunc,
	}, nil
}

type Client struct {
	Reference interface {
		UpsertReference(ctx context.Context, reference entity.FaceReference) error
		GetReferenceByUserID(ctx context.Context, userID string) (entity.FaceReference, error)
		DeleteReference(ctx context.Context, userID string) error
	}

	Attempt interface {
		CreateAttempt(ctx context.Context, attempt entity.VerificationAttempt) error
		GetAttemptsByUserID(ctx context.Context, userID string, limit int) ([]entity.VerificationAttempt, error)
	}

	Commit   func() error
	Rollback func() error
}

type referenceRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type attemptRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
