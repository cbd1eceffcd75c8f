package biometric

import (
	"FaceGate/internal/entity"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoDetectVerifier(detector Detector, reference entity.FaceDescriptor) *Verifier {
	cfg := testConfig()
	cfg.MaxFrameAttempts = 1
	return NewVerifier(cfg, detector, &fakeEmbedder{descriptor: constDescriptor(0.1)}, &fakeReferences{descriptor: reference}, quietLogger())
}

func TestAutoDetectRetriesUntilFaceAppears(t *testing.T) {
	detector := &fakeDetector{
		script: [][]entity.FaceRegion{nil, nil},
		faces:  []entity.FaceRegion{centeredFace()},
	}
	v := autoDetectVerifier(detector, constDescriptor(0.1))

	var seen []entity.FailureReason
	out, err := v.NewAutoDetector().Run(context.Background(), "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{
		Interval:    time.Millisecond,
		MaxAttempts: 5,
		OnAttempt: func(_ int, o entity.VerificationOutcome) {
			seen = append(seen, o.Reason)
		},
	})
	require.NoError(t, err)

	assert.True(t, out.Verified)
	assert.Equal(t, []entity.FailureReason{entity.ReasonNoFace, entity.ReasonNoFace, entity.ReasonNone}, seen)
}

func TestAutoDetectStopsOnMismatch(t *testing.T) {
	reference := constDescriptor(0.1)
	reference[0] = 1.5
	v := autoDetectVerifier(singleFace(), reference)

	attempts := 0
	out, err := v.NewAutoDetector().Run(context.Background(), "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{
		Interval:    time.Millisecond,
		MaxAttempts: 5,
		OnAttempt:   func(int, entity.VerificationOutcome) { attempts++ },
	})
	require.NoError(t, err)

	assert.Equal(t, 1, attempts)
	assert.Equal(t, entity.ReasonBelowThreshold, out.Reason)
	assert.NotNil(t, out.Similarity)
}

func TestAutoDetectGivesUpAfterMaxAttempts(t *testing.T) {
	detector := &fakeDetector{}
	v := autoDetectVerifier(detector, constDescriptor(0.1))

	out, err := v.NewAutoDetector().Run(context.Background(), "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{
		Interval:    time.Millisecond,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	assert.False(t, out.Verified)
	assert.Equal(t, entity.ReasonNoFace, out.Reason)
	assert.Equal(t, int32(3), detector.calls.Load())
}

func TestAutoDetectCancelledBetweenPolls(t *testing.T) {
	v := autoDetectVerifier(&fakeDetector{}, constDescriptor(0.1))
	ctx, cancel := context.WithCancel(context.Background())

	out, err := v.NewAutoDetector().Run(ctx, "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{
		Interval:    time.Hour,
		MaxAttempts: 5,
		OnAttempt:   func(int, entity.VerificationOutcome) { cancel() },
	})
	require.NoError(t, err)

	assert.False(t, out.Verified)
	assert.Equal(t, entity.ReasonCancelled, out.Reason)
}

func TestAutoDetectRejectsOverlappingRuns(t *testing.T) {
	v := autoDetectVerifier(&fakeDetector{}, constDescriptor(0.1))
	detector := v.NewAutoDetector()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = detector.Run(context.Background(), "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{
			Interval:    time.Millisecond,
			MaxAttempts: 1,
			OnAttempt: func(int, entity.VerificationOutcome) {
				close(entered)
				<-release
			},
		})
	}()

	<-entered
	assert.True(t, detector.Running())
	_, err := detector.Run(context.Background(), "user-1", &repeatSource{frame: goodFrame()}, AutoDetectOptions{})
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	close(release)

	assert.Eventually(t, func() bool { return !detector.Running() }, time.Second, 5*time.Millisecond)
}
