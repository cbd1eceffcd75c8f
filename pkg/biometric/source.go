package biometric

import (
	"FaceGate/internal/entity"
	"context"
	"sync"
	"time"
)

// SliceSource replays a fixed burst of frames, then reports ErrSourceClosed.
type SliceSource struct {
	mu     sync.Mutex
	frames []entity.Frame
	next   int
}

func NewSliceSource(frames ...entity.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) NextFrame(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.frames) {
		return entity.Frame{}, ErrSourceClosed
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *SliceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - s.next
}

// ChannelSource reads frames pushed by a live capture stream. When no frame
// arrives within readyWait it reports ErrFrameNotReady.
type ChannelSource struct {
	frames    <-chan entity.Frame
	readyWait time.Duration
}

func NewChannelSource(frames <-chan entity.Frame, readyWait time.Duration) *ChannelSource {
	if readyWait <= 0 {
		readyWait = 500 * time.Millisecond
	}
	return &ChannelSource{frames: frames, readyWait: readyWait}
}

func (s *ChannelSource) NextFrame(ctx context.Context) (entity.Frame, error) {
	timer := time.NewTimer(s.readyWait)
	defer timer.Stop()

	select {
	case f, ok := <-s.frames:
		if !ok {
			return entity.Frame{}, ErrSourceClosed
		}
		return f, nil
	case <-timer.C:
		return entity.Frame{}, ErrFrameNotReady
	case <-ctx.Done():
		return entity.Frame{}, ctx.Err()
	}
}
