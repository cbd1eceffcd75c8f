package verificationService

import (
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	contextPkg "FaceGate/pkg/context"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

func (s *verificationService) GetReferenceStatus(ctx context.Context, userID string) (verification.ReferenceStatusResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.verificationRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return verification.ReferenceStatusResponse{}, err
	}

	reference, err := repo.Reference.GetReferenceByUserID(ctx, userID)
	if errors.Is(err, verification.ErrReferenceNotFound) {
		return verification.ReferenceStatusResponse{Enrolled: false}, nil
	}
	if err != nil {
		return verification.ReferenceStatusResponse{}, err
	}

	updatedAt := reference.UpdatedAt
	res := verification.ReferenceStatusResponse{
		Enrolled:    reference.Descriptor.Valid(),
		SampleCount: reference.SampleCount,
		UpdatedAt:   &updatedAt,
	}

	if reference.SnapshotURL != "" {
		res.SnapshotURL = reference.SnapshotURL
		if s.s3 != nil {
			if presigned, err := s.s3.PresignUrl(reference.SnapshotURL); err == nil {
				res.SnapshotURL = presigned
			} else {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Warn("Failed to presign snapshot url")
			}
		}
	}

	return res, nil
}

func (s *verificationService) DeleteReference(ctx context.Context, userID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.verificationRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	reference, err := repo.Reference.GetReferenceByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := repo.Reference.DeleteReference(ctx, userID); err != nil {
		return err
	}

	s.invalidateReference(ctx, userID)
	if reference.SnapshotURL != "" {
		s.deleteSnapshot(ctx, reference.SnapshotURL)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
	}).Info("Face reference deleted")

	return nil
}

// AssessQuality runs the guard and the quality gate on a single frame so a
// client can coach the user before spending a verification attempt.
func (s *verificationService) AssessQuality(ctx context.Context, data []byte) (verification.QualityResponse, error) {
	frame, err := biometric.DecodeFrame(data)
	if err != nil {
		return verification.QualityResponse{}, verification.ErrInvalidFrame
	}

	minQuality := s.verifier.Config().MinCaptureQuality
	faces := s.verifier.Guard().CheckMultipleFaces(ctx, frame)
	res := verification.QualityResponse{
		MinQuality: minQuality,
		MultiFace:  faces,
	}

	if faces.MultipleFaces {
		res.Reason = entity.ReasonMultipleFaces
		return res, nil
	}

	region, ok := biometric.LargestFace(faces.Faces)
	if !ok {
		res.Reason = entity.ReasonNoFace
		return res, nil
	}

	quality := s.verifier.Quality().Assess(frame, &region)
	res.Quality = &quality
	res.Acceptable = quality.Score >= minQuality
	if !res.Acceptable {
		res.Reason = entity.ReasonLowQuality
	}

	return res, nil
}
