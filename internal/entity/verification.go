package entity

import "time"

type VerificationState string

const (
	StateReady          VerificationState = "ready"
	StateDetecting      VerificationState = "detecting"
	StateMultiFaceCheck VerificationState = "multi-face-check"
	StateQualityCheck   VerificationState = "quality-check"
	StateExtracting     VerificationState = "extracting"
	StateLivenessCheck  VerificationState = "liveness-check"
	StateComparing      VerificationState = "comparing"
	StateSuccess        VerificationState = "success"
	StateFailed         VerificationState = "failed"
)

func (s VerificationState) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNoFace           FailureReason = "no-face"
	ReasonMultipleFaces    FailureReason = "multiple-faces"
	ReasonLowQuality       FailureReason = "low-quality"
	ReasonExtractorError   FailureReason = "extractor-error"
	ReasonNoReferenceData  FailureReason = "no-reference-data"
	ReasonBelowThreshold   FailureReason = "below-threshold"
	ReasonTimeout          FailureReason = "timeout"
	ReasonCancelled        FailureReason = "cancelled"
	ReasonReferenceFailure FailureReason = "reference-error"
)

// Retryable reports whether a fresh capture could plausibly change the result.
func (r FailureReason) Retryable() bool {
	switch r {
	case ReasonNoFace, ReasonMultipleFaces, ReasonLowQuality, ReasonExtractorError, ReasonTimeout:
		return true
	default:
		return false
	}
}

type VerificationOutcome struct {
	AttemptID  string              `json:"attempt_id"`
	UserID     string              `json:"user_id"`
	Verified   bool                `json:"verified"`
	Similarity *float64            `json:"similarity"`
	Threshold  float64             `json:"threshold"`
	Reason     FailureReason       `json:"reason,omitempty"`
	Quality    *QualityMetrics     `json:"quality,omitempty"`
	Liveness   *LivenessResult     `json:"liveness,omitempty"`
	MultiFace  *MultiFaceResult    `json:"multi_face,omitempty"`
	States     []VerificationState `json:"states"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMs int64               `json:"duration_ms"`
}

type FaceReference struct {
	UserID      string
	Descriptor  FaceDescriptor
	SampleCount int
	SnapshotURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type VerificationPurpose string

const (
	PurposeVerify   VerificationPurpose = "verify"
	PurposeClockIn  VerificationPurpose = "clock-in"
	PurposeClockOut VerificationPurpose = "clock-out"
	PurposeLogin    VerificationPurpose = "login"
	PurposeStream   VerificationPurpose = "stream"
)

// VerificationAttempt is the audit row written by callers after an outcome is known.
type VerificationAttempt struct {
	ID                 string
	UserID             string
	Purpose            VerificationPurpose
	Verified           bool
	Similarity         *float64
	Reason             FailureReason
	QualityScore       *float64
	LivenessConfidence *float64
	DurationMs         int64
	CreatedAt          time.Time
}
