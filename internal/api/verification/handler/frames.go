package verificationHandler

import (
	"FaceGate/internal/api/verification"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// readFrames returns the raw capture bytes either from multipart "frames"
// parts or from the base64 strings of a JSON body.
func (h *VerificationHandler) readFrames(ctx *fiber.Ctx, encoded []string) ([][]byte, error) {
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, verification.ErrNoFrames
		}

		files := form.File["frames"]
		if len(files) == 0 {
			return nil, verification.ErrNoFrames
		}
		if len(files) > verification.MaxFramesPerRequest {
			return nil, verification.ErrTooManyFrames
		}

		frames := make([][]byte, 0, len(files))
		for _, file := range files {
			data, err := h.utils.ReadImageFile(file)
			if err != nil {
				return nil, verification.ErrInvalidFrame
			}
			frames = append(frames, data)
		}
		return frames, nil
	}

	frames := make([][]byte, 0, len(encoded))
	for _, e := range encoded {
		data, err := h.utils.DecodeBase64Image(e)
		if err != nil {
			return nil, verification.ErrInvalidFrame
		}
		frames = append(frames, data)
	}
	return frames, nil
}

func isMultipart(ctx *fiber.Ctx) bool {
	return strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}
