package biometric

import (
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAttemptInFlight = errors.New("verification attempt already in flight")
	ErrSessionFinished = errors.New("verification session already finished")
)

// Verifier wires the capture pipeline together. It is safe for concurrent
// use; each attempt runs in its own Session.
type Verifier struct {
	cfg        Config
	embedder   Embedder
	references ReferenceStore
	guard      *MultiFaceGuard
	quality    *QualityAssessor
	liveness   *LivenessChecker
	engine     *SimilarityEngine
	log        *logrus.Logger
	newID      func() string
}

func NewVerifier(cfg Config, detector Detector, embedder Embedder, references ReferenceStore, log *logrus.Logger) *Verifier {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Verifier{
		cfg:        cfg,
		embedder:   embedder,
		references: references,
		guard:      NewMultiFaceGuard(detector, cfg.EmbedTimeout, log),
		quality:    NewQualityAssessor(),
		liveness:   NewLivenessChecker(DefaultLivenessThreshold),
		engine:     NewSimilarityEngine(cfg.MaxDistance, cfg.MatchThreshold),
		log:        log,
		newID:      uuid.NewString,
	}
}

func (v *Verifier) Config() Config {
	return v.cfg
}

func (v *Verifier) Engine() *SimilarityEngine {
	return v.engine
}

func (v *Verifier) Guard() *MultiFaceGuard {
	return v.guard
}

func (v *Verifier) Quality() *QualityAssessor {
	return v.quality
}

// WithEmbedder returns a copy of the verifier that extracts probes with e.
func (v *Verifier) WithEmbedder(e Embedder) *Verifier {
	cp := *v
	cp.embedder = e
	return &cp
}

func (v *Verifier) NewSession(userID string, source FrameSource) *Session {
	return &Session{
		id:     v.newID(),
		userID: userID,
		source: source,
		v:      v,
		state:  entity.StateReady,
		trace:  []entity.VerificationState{entity.StateReady},
	}
}

// Session owns exactly one verification attempt and its frame source.
// Run may be called once; a concurrent call gets ErrAttemptInFlight and a
// later call gets ErrSessionFinished. Retrying means starting a new Session.
type Session struct {
	id     string
	userID string
	source FrameSource
	v      *Verifier

	inFlight atomic.Bool
	finished atomic.Bool

	mu    sync.Mutex
	state entity.VerificationState
	trace []entity.VerificationState
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() entity.VerificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Run(ctx context.Context) (entity.VerificationOutcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return entity.VerificationOutcome{}, ErrAttemptInFlight
	}
	defer s.inFlight.Store(false)

	if s.finished.Load() {
		return entity.VerificationOutcome{}, ErrSessionFinished
	}
	defer s.finished.Store(true)

	return s.run(ctx), nil
}

func (s *Session) transition(next entity.VerificationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	s.trace = append(s.trace, next)
}

func (s *Session) states() []entity.VerificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.VerificationState, len(s.trace))
	copy(out, s.trace)
	return out
}

func (s *Session) run(ctx context.Context) entity.VerificationOutcome {
	started := time.Now()
	out := entity.VerificationOutcome{
		AttemptID: s.id,
		UserID:    s.userID,
		Threshold: s.v.engine.Threshold(),
		StartedAt: started,
	}

	logger := s.v.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"attempt_id": s.id,
		"user_id":    s.userID,
	})

	finish := func(reason entity.FailureReason) entity.VerificationOutcome {
		if reason == entity.ReasonNone {
			s.transition(entity.StateSuccess)
			out.Verified = true
		} else {
			s.transition(entity.StateFailed)
			out.Reason = reason
		}
		out.States = s.states()
		out.DurationMs = time.Since(started).Milliseconds()

		fields := logrus.Fields{
			"verified":    out.Verified,
			"reason":      out.Reason,
			"duration_ms": out.DurationMs,
		}
		if out.Similarity != nil {
			fields["similarity"] = *out.Similarity
		}
		logger.WithFields(fields).Info("Verification attempt finished")
		return out
	}

	s.transition(entity.StateDetecting)
	frame, region, multiFace, reason := s.detect(ctx, logger)
	out.MultiFace = multiFace
	if reason != entity.ReasonNone {
		return finish(reason)
	}

	s.transition(entity.StateQualityCheck)
	quality := s.v.quality.Assess(frame, &region)
	out.Quality = &quality
	if quality.Score < s.v.cfg.MinCaptureQuality {
		logger.WithFields(logrus.Fields{
			"quality":     quality.Score,
			"min_quality": s.v.cfg.MinCaptureQuality,
		}).Warn("Frame rejected by quality gate")
		return finish(entity.ReasonLowQuality)
	}
	if reason := contextReason(ctx); reason != entity.ReasonNone {
		return finish(reason)
	}

	s.transition(entity.StateExtracting)
	probe, reason := s.extract(ctx, frame, region, logger)
	if reason != entity.ReasonNone {
		return finish(reason)
	}

	s.transition(entity.StateLivenessCheck)
	liveness := s.checkLiveness(ctx, frame, region)
	out.Liveness = &liveness
	if !liveness.IsLive {
		logger.WithFields(logrus.Fields{
			"liveness_confidence": liveness.Confidence,
			"frames":              liveness.FrameCount,
		}).Warn("Liveness confidence low, continuing")
	}

	s.transition(entity.StateComparing)
	reference, reason := s.reference(ctx, logger)
	if reason != entity.ReasonNone {
		return finish(reason)
	}

	similarity, err := s.v.engine.Similarity(probe, reference)
	if err != nil {
		logger.WithField("error", err.Error()).Error("Similarity computation rejected descriptors")
		return finish(entity.ReasonExtractorError)
	}
	out.Similarity = &similarity

	if reason := contextReason(ctx); reason != entity.ReasonNone {
		return finish(reason)
	}
	if !s.v.engine.Decide(similarity) {
		return finish(entity.ReasonBelowThreshold)
	}
	return finish(entity.ReasonNone)
}

func (s *Session) detect(ctx context.Context, logger *logrus.Entry) (entity.Frame, entity.FaceRegion, *entity.MultiFaceResult, entity.FailureReason) {
	var last *entity.MultiFaceResult

	for attempt := 1; attempt <= s.v.cfg.MaxFrameAttempts; attempt++ {
		if reason := contextReason(ctx); reason != entity.ReasonNone {
			return entity.Frame{}, entity.FaceRegion{}, last, reason
		}

		frame, err := await(ctx, s.v.cfg.FrameTimeout, s.source.NextFrame)
		if err != nil {
			if reason := contextReason(ctx); reason != entity.ReasonNone {
				return entity.Frame{}, entity.FaceRegion{}, last, reason
			}

			switch {
			case errors.Is(err, ErrFrameNotReady):
				if !sleepContext(ctx, s.v.cfg.FramePollInterval) {
					return entity.Frame{}, entity.FaceRegion{}, last, contextReason(ctx)
				}
			case errors.Is(err, context.DeadlineExceeded):
				logger.WithField("frame_timeout", s.v.cfg.FrameTimeout.String()).Warn("Frame acquisition timed out")
				return entity.Frame{}, entity.FaceRegion{}, last, entity.ReasonTimeout
			case errors.Is(err, ErrSourceClosed):
				return entity.Frame{}, entity.FaceRegion{}, last, entity.ReasonNoFace
			default:
				logger.WithFields(logrus.Fields{
					"attempt": attempt,
					"error":   err.Error(),
				}).Warn("Frame source returned an unusable frame")
			}
			continue
		}

		s.transition(entity.StateMultiFaceCheck)
		result := s.v.guard.CheckMultipleFaces(ctx, frame)
		last = &result
		if result.MultipleFaces {
			return entity.Frame{}, entity.FaceRegion{}, last, entity.ReasonMultipleFaces
		}

		region, ok := LargestFace(result.Faces)
		if !ok {
			s.transition(entity.StateDetecting)
			continue
		}
		return frame, region, last, entity.ReasonNone
	}

	return entity.Frame{}, entity.FaceRegion{}, last, entity.ReasonNoFace
}

func (s *Session) extract(ctx context.Context, frame entity.Frame, region entity.FaceRegion, logger *logrus.Entry) (entity.FaceDescriptor, entity.FailureReason) {
	if s.v.embedder == nil {
		logger.Error("No embedder configured")
		return nil, entity.ReasonExtractorError
	}

	descriptor, err := await(ctx, s.v.cfg.EmbedTimeout, func(c context.Context) (entity.FaceDescriptor, error) {
		return s.v.embedder.Embed(c, frame, region)
	})
	if err != nil {
		reason := classify(ctx, err, entity.ReasonExtractorError)
		logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"reason": reason,
		}).Warn("Descriptor extraction failed")
		return nil, reason
	}

	if descriptor == nil {
		logger.Warn("Embedder found no face in frame")
		return nil, entity.ReasonExtractorError
	}
	if err := ValidateDescriptor(descriptor); err != nil {
		logger.WithField("error", err.Error()).Warn("Embedder returned a malformed descriptor")
		return nil, entity.ReasonExtractorError
	}
	return descriptor, entity.ReasonNone
}

// checkLiveness pulls a few more frames if they are immediately available.
func (s *Session) checkLiveness(ctx context.Context, frame entity.Frame, region entity.FaceRegion) entity.LivenessResult {
	frames := []entity.Frame{frame}

	if s.v.cfg.LivenessFrames > 1 {
		lctx, cancel := context.WithTimeout(ctx, s.v.cfg.LivenessTimeout)
		defer cancel()

		for len(frames) < s.v.cfg.LivenessFrames && lctx.Err() == nil {
			f, err := await(lctx, s.v.cfg.FrameTimeout, s.source.NextFrame)
			if err != nil {
				if errors.Is(err, ErrFrameNotReady) && sleepContext(lctx, s.v.cfg.FramePollInterval) {
					continue
				}
				break
			}
			frames = append(frames, f)
		}
	}

	return s.v.liveness.CheckLiveness(frames, &region)
}

func (s *Session) reference(ctx context.Context, logger *logrus.Entry) (entity.FaceDescriptor, entity.FailureReason) {
	if s.v.references == nil {
		logger.Error("No reference store configured")
		return nil, entity.ReasonReferenceFailure
	}

	reference, err := await(ctx, s.v.cfg.ReferenceTimeout, func(c context.Context) (entity.FaceDescriptor, error) {
		return s.v.references.GetReferenceDescriptor(c, s.userID)
	})
	if err != nil {
		reason := classify(ctx, err, entity.ReasonReferenceFailure)
		logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"reason": reason,
		}).Error("Failed to load reference descriptor")
		return nil, reason
	}

	if reference == nil {
		return nil, entity.ReasonNoReferenceData
	}
	if err := ValidateDescriptor(reference); err != nil {
		logger.WithField("error", err.Error()).Warn("Stored reference descriptor is invalid, treating as absent")
		return nil, entity.ReasonNoReferenceData
	}
	return reference, entity.ReasonNone
}

func contextReason(ctx context.Context) entity.FailureReason {
	switch {
	case ctx.Err() == nil:
		return entity.ReasonNone
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return entity.ReasonTimeout
	default:
		return entity.ReasonCancelled
	}
}

func classify(ctx context.Context, err error, fallback entity.FailureReason) entity.FailureReason {
	if reason := contextReason(ctx); reason != entity.ReasonNone {
		return reason
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return entity.ReasonTimeout
	case errors.Is(err, context.Canceled):
		return entity.ReasonCancelled
	default:
		return fallback
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
