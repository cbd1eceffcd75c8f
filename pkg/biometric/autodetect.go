package biometric

import (
	"FaceGate/internal/entity"
	"context"
	"sync/atomic"
	"time"
)

const (
	DefaultAutoDetectInterval    = 500 * time.Millisecond
	DefaultAutoDetectMaxAttempts = 20
)

type AutoDetectOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// OnAttempt is called after every poll, on the polling goroutine.
	OnAttempt func(attempt int, outcome entity.VerificationOutcome)
}

// AutoDetector polls a frame source with back-to-back sessions until one
// succeeds or reaches a reason a new capture cannot change. Polls never
// overlap and a second concurrent Run is rejected.
type AutoDetector struct {
	v       *Verifier
	running atomic.Bool
}

func (v *Verifier) NewAutoDetector() *AutoDetector {
	return &AutoDetector{v: v}
}

func (a *AutoDetector) Running() bool {
	return a.running.Load()
}

func (a *AutoDetector) Run(ctx context.Context, userID string, source FrameSource, opts AutoDetectOptions) (entity.VerificationOutcome, error) {
	if !a.running.CompareAndSwap(false, true) {
		return entity.VerificationOutcome{}, ErrAttemptInFlight
	}
	defer a.running.Store(false)

	if opts.Interval <= 0 {
		opts.Interval = DefaultAutoDetectInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultAutoDetectMaxAttempts
	}

	var last entity.VerificationOutcome
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		outcome, err := a.v.NewSession(userID, source).Run(ctx)
		if err != nil {
			return last, err
		}
		last = outcome

		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, outcome)
		}
		if outcome.Verified || !outcome.Reason.Retryable() || attempt == opts.MaxAttempts {
			return outcome, nil
		}

		if !sleepContext(ctx, opts.Interval) {
			last.Verified = false
			last.Reason = contextReason(ctx)
			return last, nil
		}
	}
	return last, nil
}
