package biometric

import (
	"FaceGate/internal/entity"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() Config {
	return Config{
		MatchThreshold:    DefaultMatchThreshold,
		MinCaptureQuality: DefaultMinCaptureQuality,
		MaxDistance:       DefaultMaxDistance,
		FrameTimeout:      200 * time.Millisecond,
		EmbedTimeout:      200 * time.Millisecond,
		ReferenceTimeout:  200 * time.Millisecond,
		LivenessTimeout:   50 * time.Millisecond,
		FramePollInterval: 5 * time.Millisecond,
		MaxFrameAttempts:  3,
		LivenessFrames:    1,
	}
}

func constDescriptor(v float64) entity.FaceDescriptor {
	d := make(entity.FaceDescriptor, entity.DescriptorSize)
	for i := range d {
		d[i] = v
	}
	return d
}

// checkerboard alternates lo and hi on every pixel.
func checkerboard(w, h int, lo, hi uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if (x+y)%2 == 0 {
				v = hi
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func noise(w, h int, seed int64, offset int) *image.Gray {
	r := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		v := 60 + r.Intn(120) + offset
		if v > 255 {
			v = 255
		}
		img.Pix[i] = uint8(v)
	}
	return img
}

// centeredFace is a frontal face covering a quarter of a 200x200 frame.
func centeredFace() entity.FaceRegion {
	return entity.FaceRegion{
		Box:        entity.BoundingBox{X: 50, Y: 50, Width: 100, Height: 100},
		Confidence: 0.98,
		Landmarks: &entity.Landmarks{
			LeftEye:    &entity.Point{X: 80, Y: 85},
			RightEye:   &entity.Point{X: 120, Y: 85},
			Nose:       &entity.Point{X: 100, Y: 107},
			MouthLeft:  &entity.Point{X: 85, Y: 125},
			MouthRight: &entity.Point{X: 115, Y: 125},
		},
	}
}

func goodFrame() entity.Frame {
	return NewFrame(checkerboard(200, 200, 100, 160))
}

func darkFrame() entity.Frame {
	return NewFrame(uniform(200, 200, 0))
}

type fakeDetector struct {
	mu    sync.Mutex
	faces []entity.FaceRegion
	// script, when set, is consumed one entry per call before falling back to faces.
	script [][]entity.FaceRegion
	err    error
	calls  atomic.Int32
}

func (d *fakeDetector) Detect(_ context.Context, _ entity.Frame) ([]entity.FaceRegion, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.script) > 0 {
		next := d.script[0]
		d.script = d.script[1:]
		return next, nil
	}
	return d.faces, nil
}

type fakeEmbedder struct {
	mu          sync.Mutex
	descriptor  entity.FaceDescriptor
	descriptors []entity.FaceDescriptor
	err         error
	delay       time.Duration
	started     chan struct{}
	release     chan struct{}
	calls       atomic.Int32
}

func (e *fakeEmbedder) Embed(ctx context.Context, _ entity.Frame, _ entity.FaceRegion) (entity.FaceDescriptor, error) {
	e.calls.Add(1)
	if e.started != nil {
		select {
		case e.started <- struct{}{}:
		default:
		}
	}
	if e.release != nil {
		<-e.release
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.descriptors) > 0 {
		next := e.descriptors[0]
		e.descriptors = e.descriptors[1:]
		return next.Clone(), nil
	}
	return e.descriptor.Clone(), nil
}

type fakeReferences struct {
	descriptor entity.FaceDescriptor
	err        error
	calls      atomic.Int32
}

func (r *fakeReferences) GetReferenceDescriptor(_ context.Context, _ string) (entity.FaceDescriptor, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return r.descriptor.Clone(), nil
}

// repeatSource hands out the same frame forever.
type repeatSource struct {
	frame entity.Frame
	calls atomic.Int32
}

func (s *repeatSource) NextFrame(ctx context.Context) (entity.Frame, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	return s.frame, nil
}

var errDetectorDown = errors.New("detector unavailable")
