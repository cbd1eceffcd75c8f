package authHandler

import (
	"FaceGate/internal/api/auth"
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

func (h *AuthHandler) HandleFaceLogin(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 20*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req auth.FaceLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, fiber.NewError(fiber.StatusBadRequest, "invalid request body"), ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	frames := make([][]byte, 0, len(req.Frames))
	for _, encoded := range req.Frames {
		frame, err := h.utils.DecodeBase64Image(encoded)
		if err != nil {
			return errHandler.Handle(ctx, requestID, verification.ErrInvalidFrame, ctx.Path(), "decode_frame")
		}
		frames = append(frames, frame)
	}

	res, err := h.authService.Auth().FaceLogin(c, auth.FaceLoginInput{
		Email:      req.Email,
		Frames:     frames,
		Descriptor: req.Descriptor,
	})
	if errors.Is(err, auth.ErrFaceNotVerified) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"reason":     res.Verification.Reason,
		}).Info("Face login not verified")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":        err.Error(),
			"code":         handlerUtil.CodeOf(err),
			"verification": res.Verification,
		})
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "face_login")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *AuthHandler) HandleMe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	user, err := h.authService.User().GetByID(c, userData.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_user")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, auth.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
