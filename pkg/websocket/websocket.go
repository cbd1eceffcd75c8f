package websocketPkg

import (
	"FaceGate/internal/entity"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotConnected = errors.New("not connected to face AI service")

const (
	messageDetect = "detect"
	messageEmbed  = "embed"
)

// IWebsocket talks to the face AI service. It satisfies the detector and
// embedder capabilities used by the verification pipeline.
type IWebsocket interface {
	Detect(ctx context.Context, frame entity.Frame) ([]entity.FaceRegion, error)
	Embed(ctx context.Context, frame entity.Frame, region entity.FaceRegion) (entity.FaceDescriptor, error)
	IsConnected() bool
	Reconnect() error
	CloseConnections()
}

type faceRequest struct {
	Type  string              `json:"type"`
	Image string              `json:"image"`
	Box   *entity.BoundingBox `json:"box,omitempty"`
}

type faceResponse struct {
	Faces      []entity.FaceRegion `json:"faces"`
	Descriptor []float64           `json:"descriptor"`
	Error      string              `json:"error,omitempty"`
}

type webSocketClient struct {
	url          string
	log          *logrus.Logger
	faceConn     *websocket.Conn
	mu           sync.Mutex
	reqMu        sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewAIWebSocketClient dials AI_FACE_SERVICE_URL in the background.
func NewAIWebSocketClient(log *logrus.Logger) IWebsocket {
	client := newClient(os.Getenv("AI_FACE_SERVICE_URL"), log)
	go client.connectInBackground()
	return client
}

// NewAIWebSocketClientWithURL dials url lazily on the first request.
func NewAIWebSocketClientWithURL(url string, log *logrus.Logger) IWebsocket {
	return newClient(url, log)
}

func newClient(url string, log *logrus.Logger) *webSocketClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &webSocketClient{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.Warn(fmt.Sprintf("Initial connection to face AI service failed: %v. Will retry on demand.", err))
		return
	}
	c.log.Info("Successfully connected to face AI service")
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faceConn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn != nil {
		c.faceConn.Close()
		c.faceConn = nil
	}

	if c.url == "" {
		return errors.New("URL for face AI service not configured")
	}

	c.log.Info(fmt.Sprintf("Connecting to face AI service at %s", c.url))

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warn(fmt.Sprintf("Error sending pong: %v", err))
		}
		return nil
	})

	c.faceConn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn != nil {
		c.faceConn.Close()
		c.faceConn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.faceConn != conn {
			c.mu.Unlock()
			return
		}

		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warn(fmt.Sprintf("Ping failed for face AI service, marking connection as dead: %v", err))
			c.faceConn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *webSocketClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	conn := c.faceConn
	c.mu.Unlock()

	if conn != nil {
		return conn, nil
	}
	if err := c.Reconnect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.faceConn == nil {
		return nil, ErrNotConnected
	}
	return c.faceConn, nil
}

func (c *webSocketClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.faceConn == conn {
		c.faceConn = nil
	}
	conn.Close()
}

func (c *webSocketClient) Detect(ctx context.Context, frame entity.Frame) ([]entity.FaceRegion, error) {
	resp, err := c.roundTrip(ctx, messageDetect, frame, nil)
	if err != nil {
		return nil, err
	}
	return resp.Faces, nil
}

// Embed returns nil without error when the service found no face in region.
func (c *webSocketClient) Embed(ctx context.Context, frame entity.Frame, region entity.FaceRegion) (entity.FaceDescriptor, error) {
	box := region.Box
	resp, err := c.roundTrip(ctx, messageEmbed, frame, &box)
	if err != nil {
		return nil, err
	}
	if len(resp.Descriptor) == 0 {
		return nil, nil
	}
	return entity.FaceDescriptor(resp.Descriptor), nil
}

// roundTrip sends one request and waits for its reply. Requests are
// serialised because the service answers in order on a single socket.
func (c *webSocketClient) roundTrip(ctx context.Context, kind string, frame entity.Frame, box *entity.BoundingBox) (*faceResponse, error) {
	payload, err := encodeFrame(frame)
	if err != nil {
		return nil, err
	}
	message, err := json.Marshal(faceRequest{Type: kind, Image: payload, Box: box})
	if err != nil {
		return nil, err
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.getConnection()
	if err != nil {
		return nil, err
	}

	writeDeadline := time.Now().Add(c.writeTimeout)
	readDeadline := time.Now().Add(c.readTimeout)
	if deadline, ok := ctx.Deadline(); ok {
		if deadline.Before(writeDeadline) {
			writeDeadline = deadline
		}
		if deadline.Before(readDeadline) {
			readDeadline = deadline
		}
	}

	// Unblock the read as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error sending %s request: %w", kind, err)
	}

	conn.SetReadDeadline(readDeadline)
	_, raw, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("error reading %s response: %w", kind, err)
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp faceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling %s response: %w", kind, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("face AI service: %s", resp.Error)
	}

	c.log.WithFields(logrus.Fields{
		"type":       kind,
		"faces":      len(resp.Faces),
		"descriptor": len(resp.Descriptor),
	}).Debug("Received response from face AI service")

	return &resp, nil
}

func encodeFrame(frame entity.Frame) (string, error) {
	if len(frame.Data) > 0 {
		return base64.StdEncoding.EncodeToString(frame.Data), nil
	}
	if frame.Image == nil {
		return "", errors.New("frame has no image data")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
