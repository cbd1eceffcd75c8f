package biometric

import (
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var errNoDetector = errors.New("no face detector configured")

// MultiFaceGuard reports whether more than one face is in a frame.
//
// It fails open: when the detector errors the frame is reported as not having
// multiple faces. The guard is a secondary layer; the similarity decision
// remains the primary identity check.
type MultiFaceGuard struct {
	detector Detector
	timeout  time.Duration
	log      *logrus.Logger
}

func NewMultiFaceGuard(detector Detector, timeout time.Duration, log *logrus.Logger) *MultiFaceGuard {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MultiFaceGuard{
		detector: detector,
		timeout:  timeout,
		log:      log,
	}
}

func (g *MultiFaceGuard) CheckMultipleFaces(ctx context.Context, frame entity.Frame) entity.MultiFaceResult {
	faces, err := g.detect(ctx, frame)
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Face detector failed, multi-face guard failing open")
		return entity.MultiFaceResult{DetectorFailed: true}
	}

	return entity.MultiFaceResult{
		MultipleFaces: len(faces) > 1,
		Count:         len(faces),
		Faces:         faces,
	}
}

func (g *MultiFaceGuard) detect(ctx context.Context, frame entity.Frame) ([]entity.FaceRegion, error) {
	if g.detector == nil {
		return nil, errNoDetector
	}
	return await(ctx, g.timeout, func(c context.Context) ([]entity.FaceRegion, error) {
		return g.detector.Detect(c, frame)
	})
}

// LargestFace picks the region with the biggest box.
func LargestFace(faces []entity.FaceRegion) (entity.FaceRegion, bool) {
	if len(faces) == 0 {
		return entity.FaceRegion{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Box.Area() > best.Box.Area() {
			best = f
		}
	}
	return best, best.Box.Area() > 0
}

// await runs fn with a deadline and returns as soon as the deadline passes,
// even if fn ignores its context.
func await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(cctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}
