package verificationService

import (
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	contextPkg "FaceGate/pkg/context"
	"FaceGate/pkg/s3"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *verificationService) Enroll(ctx context.Context, input verification.EnrollInput) (verification.EnrollResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	frames, err := decodeFrames(input.Frames)
	if err != nil {
		return verification.EnrollResponse{}, err
	}

	release, err := s.acquireAttempt(ctx, input.UserID)
	if err != nil {
		return verification.EnrollResponse{}, err
	}
	defer release()

	enrollment, err := s.verifier.Enroll(ctx, frames)
	res := verification.EnrollResponse{Samples: enrollment.Samples}
	switch {
	case errors.Is(err, biometric.ErrMultipleFacesFound):
		return res, verification.ErrMultipleFaces
	case errors.Is(err, biometric.ErrNoUsableFrame):
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"frames":     len(frames),
		}).Warn("Enrollment rejected every frame")
		return res, verification.ErrNoUsableFrame
	case err != nil:
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"error":      err.Error(),
		}).Error("Enrollment failed")
		return res, err
	}

	for _, sample := range enrollment.Samples {
		if sample.Accepted {
			res.SampleCount++
		}
	}

	if s.opts.StoreSnapshots && s.s3 != nil && enrollment.FirstAccepted >= 0 {
		res.SnapshotURL = s.uploadSnapshot(ctx, input.UserID, frames[enrollment.FirstAccepted])
	}

	repo, err := s.verificationRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return res, err
	}
	defer repo.Rollback()

	previous, err := repo.Reference.GetReferenceByUserID(ctx, input.UserID)
	if err != nil && !errors.Is(err, verification.ErrReferenceNotFound) {
		s.discardSnapshot(ctx, &res)
		return res, err
	}

	err = repo.Reference.UpsertReference(ctx, entity.FaceReference{
		UserID:      input.UserID,
		Descriptor:  enrollment.Descriptor,
		SampleCount: res.SampleCount,
		SnapshotURL: res.SnapshotURL,
	})
	if err != nil {
		s.discardSnapshot(ctx, &res)
		return res, verification.ErrSaveReference
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit face reference")
		s.discardSnapshot(ctx, &res)
		return res, verification.ErrSaveReference
	}

	s.invalidateReference(ctx, input.UserID)
	if previous.SnapshotURL != "" && previous.SnapshotURL != res.SnapshotURL {
		s.deleteSnapshot(ctx, previous.SnapshotURL)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   requestID,
		"user_id":      input.UserID,
		"sample_count": res.SampleCount,
	}).Info("Face reference enrolled")

	return res, nil
}

// uploadSnapshot stores the capture that seeded the reference. Enrollment does
// not depend on it, so failures return an empty URL.
func (s *verificationService) uploadSnapshot(ctx context.Context, userID string, frame entity.Frame) string {
	contentType := http.DetectContentType(frame.Data)
	key := s3.SnapshotKey(userID, time.Now(), snapshotExtension(contentType))

	url, err := s.s3.UploadBytes(ctx, key, frame.Data, contentType)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    userID,
			"error":      err.Error(),
		}).Warn("Failed to upload enrollment snapshot")
		return ""
	}
	return url
}

func (s *verificationService) deleteSnapshot(ctx context.Context, url string) {
	if s.s3 == nil {
		return
	}
	if err := s.s3.DeleteFile(ctx, url); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"url":        url,
			"error":      err.Error(),
		}).Warn("Failed to delete enrollment snapshot")
	}
}

// discardSnapshot removes an uploaded snapshot whose reference was never saved.
func (s *verificationService) discardSnapshot(ctx context.Context, res *verification.EnrollResponse) {
	if res.SnapshotURL == "" {
		return
	}
	s.deleteSnapshot(context.WithoutCancel(ctx), res.SnapshotURL)
	res.SnapshotURL = ""
}

func (s *verificationService) invalidateReference(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeleteReferenceDescriptor(ctx, userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    userID,
			"error":      err.Error(),
		}).Warn("Failed to invalidate cached reference")
	}
}

func snapshotExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
