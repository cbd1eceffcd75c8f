package verificationHandler

import (
	"FaceGate/internal/api/verification"
	contextPkg "FaceGate/pkg/context"
	"FaceGate/pkg/handlerUtil"
	jwtPkg "FaceGate/pkg/jwt"
	"FaceGate/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *VerificationHandler) Verify(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing verify request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req verification.VerifyRequest
	if !isMultipart(ctx) {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.NewError(fiber.StatusBadRequest, "invalid request body"), ctx.Path(), "parse_request_body")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	frames, err := h.readFrames(ctx, req.Frames)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frames")
	}

	outcome, err := h.verificationService.Verify(c, verification.VerifyInput{
		UserID:     userData.ID,
		Frames:     frames,
		Descriptor: req.Descriptor,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "verify_face")
	}

	// A deadline hit inside the pipeline is reported as reason "timeout".
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, verification.NewVerifyResponse(outcome))
}

func (h *VerificationHandler) Enroll(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req verification.EnrollRequest
	if !isMultipart(ctx) {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.NewError(fiber.StatusBadRequest, "invalid request body"), ctx.Path(), "parse_request_body")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	frames, err := h.readFrames(ctx, req.Frames)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frames")
	}

	res, err := h.verificationService.Enroll(c, verification.EnrollInput{
		UserID: userData.ID,
		Frames: frames,
	})
	if errors.Is(err, verification.ErrNoUsableFrame) || errors.Is(err, verification.ErrMultipleFaces) {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   err.Error(),
			"code":    handlerUtil.CodeOf(err),
			"samples": res.Samples,
		})
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "enroll_face")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *VerificationHandler) AssessQuality(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req verification.QualityRequest
	var frame []byte
	if isMultipart(ctx) {
		frames, err := h.readFrames(ctx, nil)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frames")
		}
		frame = frames[0]
	} else {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.NewError(fiber.StatusBadRequest, "invalid request body"), ctx.Path(), "parse_request_body")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
		frames, err := h.readFrames(ctx, []string{req.Frame})
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frames")
		}
		frame = frames[0]
	}

	res, err := h.verificationService.AssessQuality(c, frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "assess_quality")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VerificationHandler) GetReferenceStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	res, err := h.verificationService.GetReferenceStatus(c, userData.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_reference_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VerificationHandler) DeleteReference(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	if err := h.verificationService.DeleteReference(c, userData.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_reference")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Face reference deleted successfully",
		})
	}
}

func (h *VerificationHandler) GetAttempts(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	attempts, err := h.verificationService.GetAttempts(c, userData.ID, ctx.QueryInt("limit", 20))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_attempts")
	}

	response := make([]verification.AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		response = append(response, verification.AttemptResponse{
			ID:                 a.ID,
			Purpose:            a.Purpose,
			Verified:           a.Verified,
			Similarity:         a.Similarity,
			Reason:             a.Reason,
			QualityScore:       a.QualityScore,
			LivenessConfidence: a.LivenessConfidence,
			DurationMs:         a.DurationMs,
			CreatedAt:          a.CreatedAt.Format(time.RFC3339),
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"attempts": response,
		})
	}
}
