package attendanceHandler

import (
	"FaceGate/internal/api/attendance"
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

type clockFunc func(ctx context.Context, input attendance.ClockInput) (attendance.ClockResult, error)

func (h *AttendanceHandler) ClockIn(ctx *fiber.Ctx) error {
	return h.clock(ctx, "clock_in", h.attendanceService.ClockIn)
}

func (h *AttendanceHandler) ClockOut(ctx *fiber.Ctx) error {
	return h.clock(ctx, "clock_out", h.attendanceService.ClockOut)
}

func (h *AttendanceHandler) clock(ctx *fiber.Ctx, operation string, fn clockFunc) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing attendance request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req attendance.ClockRequest
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

	res, err := fn(c, attendance.ClockInput{
		UserID:     userData.ID,
		Frames:     frames,
		Descriptor: req.Descriptor,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if errors.Is(err, attendance.ErrOutsideGeofence) {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":           err.Error(),
			"code":            handlerUtil.CodeOf(err),
			"distance_meters": res.DistanceMeters,
		})
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	status := fiber.StatusCreated
	if res.Record == nil {
		status = fiber.StatusUnprocessableEntity
	}

	return errHandler.HandleSuccess(ctx, status, attendance.NewClockResponse(res))
}

func (h *AttendanceHandler) GetHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	res, err := h.attendanceService.GetHistory(c, userData.ID, ctx.QueryInt("limit", 0))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_attendance_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
