package verificationService

import (
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	contextPkg "FaceGate/pkg/context"
	"FaceGate/pkg/redis"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const lockReleaseTimeout = 2 * time.Second

func (s *verificationService) Verify(ctx context.Context, input verification.VerifyInput) (entity.VerificationOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if input.Purpose == "" {
		input.Purpose = entity.PurposeVerify
	}

	frames, err := decodeFrames(input.Frames)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"error":      err.Error(),
		}).Warn("Rejected verification frames")
		return entity.VerificationOutcome{}, err
	}

	verifier := s.verifier
	if input.Descriptor != nil {
		if !s.opts.TrustClientDescriptor {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    input.UserID,
			}).Warn("Client sent a descriptor but client extraction is not trusted")
			return entity.VerificationOutcome{}, verification.ErrClientDescriptorNotAllowed
		}
		if err := biometric.ValidateDescriptor(input.Descriptor); err != nil {
			return entity.VerificationOutcome{}, verification.ErrInvalidDescriptor
		}
		verifier = verifier.WithEmbedder(biometric.StaticEmbedder(input.Descriptor))
	}

	release, err := s.acquireAttempt(ctx, input.UserID)
	if err != nil {
		return entity.VerificationOutcome{}, err
	}
	defer release()

	outcome, err := verifier.NewSession(input.UserID, biometric.NewSliceSource(frames...)).Run(ctx)
	if err != nil {
		return entity.VerificationOutcome{}, err
	}

	s.recordAttempt(ctx, input.Purpose, outcome)

	return outcome, nil
}

// acquireAttempt takes the per-user Redis lock. Only a lock held by another
// attempt is fatal; when Redis itself is down the attempt proceeds unlocked.
func (s *verificationService) acquireAttempt(ctx context.Context, userID string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	requestID := contextPkg.GetRequestID(ctx)
	token := uuid.NewString()

	err := s.redis.AcquireAttemptLock(ctx, userID, token, s.opts.AttemptLockTTL)
	switch {
	case errors.Is(err, redis.ErrLockHeld):
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
		}).Warn("Verification attempt already in flight")
		return nil, verification.ErrAttemptInFlight
	case err != nil:
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Warn("Attempt lock unavailable, continuing without it")
		return func() {}, nil
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()

		if err := s.redis.ReleaseAttemptLock(rctx, userID, token); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			}).Warn("Failed to release attempt lock")
		}
	}, nil
}

// recordAttempt writes the audit row. The outcome is already decided, so a
// failed or slow write is only logged and never outlives AuditTimeout.
func (s *verificationService) recordAttempt(ctx context.Context, purpose entity.VerificationPurpose, outcome entity.VerificationOutcome) {
	requestID := contextPkg.GetRequestID(ctx)

	attempt := entity.VerificationAttempt{
		ID:         outcome.AttemptID,
		UserID:     outcome.UserID,
		Purpose:    purpose,
		Verified:   outcome.Verified,
		Similarity: outcome.Similarity,
		Reason:     outcome.Reason,
		DurationMs: outcome.DurationMs,
		CreatedAt:  outcome.StartedAt,
	}
	if outcome.Quality != nil {
		score := outcome.Quality.Score
		attempt.QualityScore = &score
	}
	if outcome.Liveness != nil {
		confidence := outcome.Liveness.Confidence
		attempt.LivenessConfidence = &confidence
	}

	repo, err := s.verificationRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AuditTimeout)
	defer cancel()

	if err := repo.Attempt.CreateAttempt(actx, attempt); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": attempt.ID,
			"error":      err.Error(),
		}).Error("Failed to record verification attempt")
	}
}

func (s *verificationService) GetAttempts(ctx context.Context, userID string, limit int) ([]entity.VerificationAttempt, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	repo, err := s.verificationRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	return repo.Attempt.GetAttemptsByUserID(ctx, userID, limit)
}

func decodeFrames(raw [][]byte) ([]entity.Frame, error) {
	if len(raw) == 0 {
		return nil, verification.ErrNoFrames
	}
	if len(raw) > verification.MaxFramesPerRequest {
		return nil, verification.ErrTooManyFrames
	}

	frames := make([]entity.Frame, 0, len(raw))
	for _, data := range raw {
		frame, err := biometric.DecodeFrame(data)
		if err != nil {
			return nil, verification.ErrInvalidFrame
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
