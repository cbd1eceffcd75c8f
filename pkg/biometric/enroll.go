package biometric

import (
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoUsableFrame      = errors.New("no frame passed the capture checks")
	ErrMultipleFacesFound = errors.New("more than one face in enrollment frame")
)

type EnrollmentSample struct {
	Index    int                    `json:"index"`
	Accepted bool                   `json:"accepted"`
	Reason   entity.FailureReason   `json:"reason,omitempty"`
	Quality  *entity.QualityMetrics `json:"quality,omitempty"`
}

type Enrollment struct {
	Descriptor entity.FaceDescriptor
	// FirstAccepted is the index of the first frame that produced a descriptor.
	FirstAccepted int
	Samples       []EnrollmentSample
}

// Enroll runs every frame through the same guard, quality gate and extractor
// used for verification and averages the accepted descriptors.
func (v *Verifier) Enroll(ctx context.Context, frames []entity.Frame) (Enrollment, error) {
	logger := v.log.WithField("request_id", contextPkg.GetRequestID(ctx))

	result := Enrollment{FirstAccepted: -1}
	var descriptors []entity.FaceDescriptor

	for i, frame := range frames {
		if reason := contextReason(ctx); reason != entity.ReasonNone {
			return result, ctx.Err()
		}

		sample := EnrollmentSample{Index: i}

		faces := v.guard.CheckMultipleFaces(ctx, frame)
		if faces.MultipleFaces {
			logger.WithField("frame", i).Warn("Enrollment frame contains multiple faces")
			return result, ErrMultipleFacesFound
		}

		region, ok := LargestFace(faces.Faces)
		if !ok {
			sample.Reason = entity.ReasonNoFace
			result.Samples = append(result.Samples, sample)
			continue
		}

		quality := v.quality.Assess(frame, &region)
		sample.Quality = &quality
		if quality.Score < v.cfg.MinCaptureQuality {
			sample.Reason = entity.ReasonLowQuality
			result.Samples = append(result.Samples, sample)
			continue
		}

		descriptor, err := await(ctx, v.cfg.EmbedTimeout, func(c context.Context) (entity.FaceDescriptor, error) {
			if v.embedder == nil {
				return nil, errors.New("no embedder configured")
			}
			return v.embedder.Embed(c, frame, region)
		})
		if err != nil || ValidateDescriptor(descriptor) != nil {
			fields := logrus.Fields{"frame": i}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.WithFields(fields).Warn("Enrollment frame produced no descriptor")
			sample.Reason = classify(ctx, err, entity.ReasonExtractorError)
			result.Samples = append(result.Samples, sample)
			continue
		}

		sample.Accepted = true
		result.Samples = append(result.Samples, sample)
		if result.FirstAccepted < 0 {
			result.FirstAccepted = i
		}
		descriptors = append(descriptors, descriptor)
	}

	if len(descriptors) == 0 {
		return result, ErrNoUsableFrame
	}

	avg, err := AverageDescriptors(descriptors)
	if err != nil {
		return result, err
	}
	result.Descriptor = avg
	return result, nil
}
