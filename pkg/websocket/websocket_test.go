package websocketPkg

import (
	"FaceGate/internal/entity"
	"context"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeFaceService answers every request with handle, or stays silent when
// handle returns nil.
func fakeFaceService(t *testing.T, handle func(req faceRequest) *faceResponse) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req faceRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return
			}
			resp := handle(req)
			if resp == nil {
				continue
			}
			out, _ := json.Marshal(resp)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testFrame() entity.Frame {
	return entity.Frame{Image: image.NewGray(image.Rect(0, 0, 16, 16)), Width: 16, Height: 16}
}

func TestDetectReturnsFaces(t *testing.T) {
	url := fakeFaceService(t, func(req faceRequest) *faceResponse {
		assert.Equal(t, messageDetect, req.Type)
		assert.NotEmpty(t, req.Image)
		return &faceResponse{Faces: []entity.FaceRegion{
			{Box: entity.BoundingBox{X: 1, Y: 2, Width: 10, Height: 10}, Confidence: 0.9},
			{Box: entity.BoundingBox{X: 5, Y: 5, Width: 4, Height: 4}, Confidence: 0.7},
		}}
	})

	client := NewAIWebSocketClientWithURL(url, quietLogger())
	defer client.CloseConnections()

	faces, err := client.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, 10, faces[0].Box.Width)
	assert.True(t, client.IsConnected())
}

func TestEmbedSendsBoxAndReturnsDescriptor(t *testing.T) {
	url := fakeFaceService(t, func(req faceRequest) *faceResponse {
		if assert.NotNil(t, req.Box) {
			assert.Equal(t, 12, req.Box.Width)
		}
		return &faceResponse{Descriptor: make([]float64, entity.DescriptorSize)}
	})

	client := NewAIWebSocketClientWithURL(url, quietLogger())
	defer client.CloseConnections()

	descriptor, err := client.Embed(context.Background(), entity.Frame{Data: []byte{0xff, 0xd8}}, entity.FaceRegion{
		Box: entity.BoundingBox{Width: 12, Height: 12},
	})
	require.NoError(t, err)
	assert.Len(t, descriptor, entity.DescriptorSize)
}

func TestEmbedWithoutFace(t *testing.T) {
	url := fakeFaceService(t, func(faceRequest) *faceResponse {
		return &faceResponse{}
	})

	client := NewAIWebSocketClientWithURL(url, quietLogger())
	defer client.CloseConnections()

	descriptor, err := client.Embed(context.Background(), testFrame(), entity.FaceRegion{})
	require.NoError(t, err)
	assert.Nil(t, descriptor)
}

func TestServiceErrorIsReturned(t *testing.T) {
	url := fakeFaceService(t, func(faceRequest) *faceResponse {
		return &faceResponse{Error: "model not loaded"}
	})

	client := NewAIWebSocketClientWithURL(url, quietLogger())
	defer client.CloseConnections()

	_, err := client.Detect(context.Background(), testFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRequestHonoursContextDeadline(t *testing.T) {
	url := fakeFaceService(t, func(faceRequest) *faceResponse {
		return nil
	})

	client := NewAIWebSocketClientWithURL(url, quietLogger())
	defer client.CloseConnections()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := client.Detect(ctx, testFrame())
	require.Error(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.False(t, client.IsConnected())
}

func TestUnconfiguredURL(t *testing.T) {
	client := NewAIWebSocketClientWithURL("", quietLogger())

	_, err := client.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestEncodeFrameRequiresPixels(t *testing.T) {
	_, err := encodeFrame(entity.Frame{})
	assert.Error(t, err)

	encoded, err := encodeFrame(testFrame())
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}
