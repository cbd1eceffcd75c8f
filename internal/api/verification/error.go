package verification

import "FaceGate/pkg/response"

var (
	ErrNoFrames                   = response.NewCodedError(400, "NO_FRAMES", "at least one frame is required")
	ErrTooManyFrames              = response.NewCodedError(400, "TOO_MANY_FRAMES", "too many frames in one request")
	ErrInvalidFrame               = response.NewCodedError(400, "INVALID_FRAME", "frame is not a decodable image")
	ErrInvalidDescriptor          = response.NewCodedError(400, "INVALID_DESCRIPTOR", "face descriptor must hold 128 finite values")
	ErrClientDescriptorNotAllowed = response.NewCodedError(403, "CLIENT_DESCRIPTOR_NOT_ALLOWED", "client computed descriptors are not accepted")
	ErrReferenceNotFound          = response.NewCodedError(404, "REFERENCE_NOT_FOUND", "facial setup has not been completed")
	ErrAttemptInFlight            = response.NewCodedError(409, "ATTEMPT_IN_FLIGHT", "a verification attempt is already running for this user")
	ErrNoUsableFrame              = response.NewCodedError(422, "NO_USABLE_FRAME", "no frame passed the capture checks")
	ErrMultipleFaces              = response.NewCodedError(422, "MULTIPLE_FACES", "more than one face in frame")
	ErrSaveReference              = response.NewCodedError(500, "SAVE_REFERENCE_FAILED", "failed to save face reference")
)
