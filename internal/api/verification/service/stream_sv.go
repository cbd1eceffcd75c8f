package verificationService

import (
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	contextPkg "FaceGate/pkg/context"
	"context"

	"github.com/sirupsen/logrus"
)

// StreamVerify runs auto-detect over frames pushed by a live capture. Only the
// newest undecoded frame is kept; older ones are dropped while a poll is busy.
func (s *verificationService) StreamVerify(
	ctx context.Context,
	userID string,
	frames <-chan []byte,
	onAttempt func(attempt int, outcome entity.VerificationOutcome),
) (entity.VerificationOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	release, err := s.acquireAttempt(ctx, userID)
	if err != nil {
		return entity.VerificationOutcome{}, err
	}
	defer release()

	decoded := make(chan entity.Frame, 1)
	go func() {
		defer close(decoded)
		for data := range frames {
			frame, err := biometric.DecodeFrame(data)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Debug("Dropping undecodable stream frame")
				continue
			}

			select {
			case decoded <- frame:
			case <-ctx.Done():
				return
			default:
				select {
				case <-decoded:
				default:
				}
				select {
				case decoded <- frame:
				default:
				}
			}
		}
	}()

	source := biometric.NewChannelSource(decoded, s.verifier.Config().FramePollInterval)
	outcome, err := s.verifier.NewAutoDetector().Run(ctx, userID, source, biometric.AutoDetectOptions{
		Interval:    s.opts.AutoDetectInterval,
		MaxAttempts: s.opts.AutoDetectMaxAttempts,
		OnAttempt:   onAttempt,
	})
	if err != nil {
		return outcome, err
	}

	s.recordAttempt(ctx, entity.PurposeStream, outcome)

	return outcome, nil
}
