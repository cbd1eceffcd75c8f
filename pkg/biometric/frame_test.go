package biometric

import (
	"FaceGate/internal/entity"
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeFrameDownscalesForAnalysis(t *testing.T) {
	data := encodePNG(t, checkerboard(1280, 720, 90, 170))

	frame, err := DecodeFrame(data)
	require.NoError(t, err)

	assert.Equal(t, 1280, frame.Width)
	assert.Equal(t, 720, frame.Height)
	assert.Equal(t, MaxAnalysisWidth, frame.Image.Bounds().Dx())
	assert.Equal(t, 360, frame.Image.Bounds().Dy())
	assert.Equal(t, data, frame.Data)
}

func TestDecodeFrameKeepsSmallImages(t *testing.T) {
	frame, err := DecodeFrame(encodePNG(t, uniform(320, 240, 100)))
	require.NoError(t, err)
	assert.Equal(t, 320, frame.Image.Bounds().Dx())
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	_, err := DecodeFrame(nil)
	assert.ErrorIs(t, err, ErrInvalidFrame)

	_, err = DecodeFrame([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestAnalysisRectScalesRegion(t *testing.T) {
	frame := entity.Frame{Image: uniform(640, 360, 0), Width: 1280, Height: 720}
	region := entity.FaceRegion{Box: entity.BoundingBox{X: 400, Y: 200, Width: 400, Height: 300}}

	assert.Equal(t, image.Rect(200, 100, 400, 250), analysisRect(frame, &region))
	assert.Equal(t, image.Rect(0, 0, 640, 360), analysisRect(frame, nil))
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource(goodFrame(), darkFrame())
	assert.Equal(t, 2, src.Remaining())

	_, err := src.NextFrame(context.Background())
	require.NoError(t, err)
	_, err = src.NextFrame(context.Background())
	require.NoError(t, err)

	_, err = src.NextFrame(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
	assert.Equal(t, 0, src.Remaining())
}

func TestChannelSource(t *testing.T) {
	frames := make(chan entity.Frame, 1)
	src := NewChannelSource(frames, 10*time.Millisecond)

	_, err := src.NextFrame(context.Background())
	assert.ErrorIs(t, err, ErrFrameNotReady)

	frames <- goodFrame()
	f, err := src.NextFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, f.Width)

	close(frames)
	_, err = src.NextFrame(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}
