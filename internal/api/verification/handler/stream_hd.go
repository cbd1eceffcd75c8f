package verificationHandler

import (
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	"FaceGate/internal/middleware"
	contextPkg "FaceGate/pkg/context"
	"FaceGate/pkg/handlerUtil"
	"FaceGate/pkg/log"
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamMaxDuration  = 2 * time.Minute
	streamBuffer       = 4
)

// handleStream feeds binary camera frames into an auto-detect run and reports
// every poll back to the client. The final message has Final set and is
// followed by a normal close.
func (h *VerificationHandler) handleStream(c *websocket.Conn) {
	user, ok := c.Locals("user").(entity.UserLoginData)
	if !ok {
		_ = c.WriteJSON(verification.StreamMessage{Final: true, Error: "unauthorized"})
		return
	}
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	logger := h.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	})
	logger.Info("Verification stream connected")
	defer logger.Info("Verification stream disconnected")

	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), streamMaxDuration)
	defer cancel()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	var writeMu sync.Mutex
	write := func(msg verification.StreamMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return c.WriteJSON(msg)
	}

	frames := make(chan []byte, streamBuffer)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer close(frames)
		defer cancel()

		for {
			if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
				return
			}

			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warnf("Verification stream read error: %v", err)
				}
				return
			}

			if messageType != websocket.BinaryMessage {
				logger.Warnf("Received unexpected message type: %d", messageType)
				continue
			}

			select {
			case frames <- message:
			default:
			}
		}
	}()

	outcome, err := h.verificationService.StreamVerify(ctx, user.ID, frames, func(attempt int, outcome entity.VerificationOutcome) {
		if err := write(verification.StreamMessage{
			Attempt: attempt,
			Result:  verification.NewVerifyResponse(outcome),
		}); err != nil {
			logger.Warnf("Error writing stream progress: %v", err)
		}
	})

	final := verification.StreamMessage{Final: true}
	if err != nil {
		final.Error = err.Error()
		final.Code = handlerUtil.CodeOf(err)
	} else {
		final.Result = verification.NewVerifyResponse(outcome)
	}
	if err := write(final); err != nil {
		logger.Warnf("Error writing stream result: %v", err)
	}

	writeMu.Lock()
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	writeMu.Unlock()

	_ = c.Close()
	<-readerDone
}
