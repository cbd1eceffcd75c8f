package verification

import (
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	"fmt"
	"time"
)

// MaxFramesPerRequest bounds a single verify or enroll call.
const MaxFramesPerRequest = 5

// VerifyRequest carries base64 encoded captures. Descriptor is only honoured
// when the server is configured to trust client side extraction.
type VerifyRequest struct {
	Frames     []string  `json:"frames" validate:"required,min=1,max=5,dive,required"`
	Descriptor []float64 `json:"descriptor" validate:"omitempty"`
}

type EnrollRequest struct {
	Frames []string `json:"frames" validate:"required,min=1,max=5,dive,required"`
}

type QualityRequest struct {
	Frame string `json:"frame" validate:"required"`
}

// VerifyInput is what the service works with once the transport decoded the
// request. Other domains build it directly.
type VerifyInput struct {
	UserID     string
	Purpose    entity.VerificationPurpose
	Frames     [][]byte
	Descriptor []float64
}

type EnrollInput struct {
	UserID string
	Frames [][]byte
}

type VerifyResponse struct {
	AttemptID  string                     `json:"attempt_id"`
	Verified   bool                       `json:"verified"`
	Similarity *float64                   `json:"similarity"`
	Threshold  float64                    `json:"threshold"`
	Reason     entity.FailureReason       `json:"reason,omitempty"`
	Retryable  bool                       `json:"retryable"`
	Message    string                     `json:"message"`
	Quality    *entity.QualityMetrics     `json:"quality,omitempty"`
	Liveness   *entity.LivenessResult     `json:"liveness,omitempty"`
	MultiFace  *entity.MultiFaceResult    `json:"multi_face,omitempty"`
	States     []entity.VerificationState `json:"states"`
	DurationMs int64                      `json:"duration_ms"`
}

func NewVerifyResponse(outcome entity.VerificationOutcome) VerifyResponse {
	return VerifyResponse{
		AttemptID:  outcome.AttemptID,
		Verified:   outcome.Verified,
		Similarity: outcome.Similarity,
		Threshold:  outcome.Threshold,
		Reason:     outcome.Reason,
		Retryable:  !outcome.Verified && outcome.Reason.Retryable(),
		Message:    MessageFor(outcome),
		Quality:    outcome.Quality,
		Liveness:   outcome.Liveness,
		MultiFace:  outcome.MultiFace,
		States:     outcome.States,
		DurationMs: outcome.DurationMs,
	}
}

// MessageFor maps an outcome to the text shown to the person in front of the camera.
func MessageFor(outcome entity.VerificationOutcome) string {
	if outcome.Verified {
		return "Face verified"
	}

	switch outcome.Reason {
	case entity.ReasonNoFace:
		return "No face detected. Look straight at the camera"
	case entity.ReasonMultipleFaces:
		return "More than one face detected. Make sure you are alone in the frame"
	case entity.ReasonLowQuality:
		return "Image quality too low. Move to a brighter spot and hold still"
	case entity.ReasonExtractorError:
		return "Could not read your face. Please try again"
	case entity.ReasonNoReferenceData:
		return "Please complete facial setup first"
	case entity.ReasonBelowThreshold:
		if outcome.Similarity != nil {
			return fmt.Sprintf("Face does not match (similarity %.2f, required %.2f)", *outcome.Similarity, outcome.Threshold)
		}
		return "Face does not match"
	case entity.ReasonTimeout:
		return "Verification timed out. Please try again"
	case entity.ReasonCancelled:
		return "Verification cancelled"
	default:
		return "Verification failed. Please try again later"
	}
}

type EnrollResponse struct {
	SampleCount int                          `json:"sample_count"`
	SnapshotURL string                       `json:"snapshot_url,omitempty"`
	Samples     []biometric.EnrollmentSample `json:"samples"`
}

type QualityResponse struct {
	Acceptable bool                   `json:"acceptable"`
	MinQuality float64                `json:"min_quality"`
	Quality    *entity.QualityMetrics `json:"quality,omitempty"`
	MultiFace  entity.MultiFaceResult `json:"multi_face"`
	Reason     entity.FailureReason   `json:"reason,omitempty"`
}

type ReferenceStatusResponse struct {
	Enrolled    bool       `json:"enrolled"`
	SampleCount int        `json:"sample_count,omitempty"`
	SnapshotURL string     `json:"snapshot_url,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type AttemptResponse struct {
	ID                 string                     `json:"id"`
	Purpose            entity.VerificationPurpose `json:"purpose"`
	Verified           bool                       `json:"verified"`
	Similarity         *float64                   `json:"similarity"`
	Reason             entity.FailureReason       `json:"reason,omitempty"`
	QualityScore       *float64                   `json:"quality_score,omitempty"`
	LivenessConfidence *float64                   `json:"liveness_confidence,omitempty"`
	DurationMs         int64                      `json:"duration_ms"`
	CreatedAt          string                     `json:"created_at"`
}

// StreamMessage is written to the auto-detect websocket after every poll and
// once more with Final set when the run ends.
type StreamMessage struct {
	Attempt int            `json:"attempt"`
	Final   bool           `json:"final"`
	Result  VerifyResponse `json:"result"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
}
