package verificationService

import (
	"FaceGate/internal/api/verification"
	verificationRepository "FaceGate/internal/api/verification/repository"
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"FaceGate/pkg/redis"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// referenceStore reads enrolled descriptors through the Redis cache and falls
// back to Postgres. A user without a reference yields a nil descriptor. A
// database read is only cached when no delete or re-enrollment bumped the
// reference generation in the meantime.
type referenceStore struct {
	log        *logrus.Logger
	repository verificationRepository.Repository
	cache      redis.IRedis
	ttl        time.Duration
}

func (r *referenceStore) GetReferenceDescriptor(ctx context.Context, userID string) (entity.FaceDescriptor, error) {
	requestID := contextPkg.GetRequestID(ctx)

	cacheable := false
	var generation int64

	if r.cache != nil {
		descriptor, err := r.cache.GetReferenceDescriptor(ctx, userID)
		if err == nil {
			return descriptor, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			}).Warn("Reference cache unavailable, reading from database")
		}

		if generation, err = r.cache.ReferenceGeneration(ctx, userID); err == nil {
			cacheable = true
		}
	}

	repo, err := r.repository.NewClient(false)
	if err != nil {
		return nil, err
	}

	reference, err := repo.Reference.GetReferenceByUserID(ctx, userID)
	if errors.Is(err, verification.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if cacheable && reference.Descriptor.Valid() {
		err := r.cache.SetReferenceDescriptor(ctx, userID, reference.Descriptor, generation, r.ttl)
		switch {
		case errors.Is(err, redis.ErrStaleReference):
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
			}).Debug("Reference changed during read, skipping cache fill")
		case err != nil:
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			}).Warn("Failed to cache reference descriptor")
		}
	}

	return reference.Descriptor, nil
}
