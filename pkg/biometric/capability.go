package biometric

import (
	"FaceGate/internal/entity"
	"context"
	"errors"
)

var (
	ErrFrameNotReady = errors.New("frame not ready")
	ErrSourceClosed  = errors.New("frame source closed")
)

// Detector finds face regions in a frame. An empty slice means no face.
type Detector interface {
	Detect(ctx context.Context, frame entity.Frame) ([]entity.FaceRegion, error)
}

// Embedder turns the face inside region into a descriptor. A nil descriptor
// with a nil error means the model found no face.
type Embedder interface {
	Embed(ctx context.Context, frame entity.Frame, region entity.FaceRegion) (entity.FaceDescriptor, error)
}

// ReferenceStore returns the enrolled descriptor of a user, or nil when the
// user never completed facial setup.
type ReferenceStore interface {
	GetReferenceDescriptor(ctx context.Context, userID string) (entity.FaceDescriptor, error)
}

// FrameSource supplies frames on demand. It returns ErrFrameNotReady while the
// camera warms up and ErrSourceClosed when no more frames will arrive.
type FrameSource interface {
	NextFrame(ctx context.Context) (entity.Frame, error)
}

// StaticEmbedder returns a fixed descriptor, used when a trusted client already
// computed the probe descriptor.
type StaticEmbedder entity.FaceDescriptor

func (s StaticEmbedder) Embed(_ context.Context, _ entity.Frame, _ entity.FaceRegion) (entity.FaceDescriptor, error) {
	return entity.FaceDescriptor(s).Clone(), nil
}
