package preview

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// conn serializes writes to one relay socket. Reads happen on a single goroutine and
// need no lock.
type conn struct {
	ws       *websocket.Conn
	mu       sync.Mutex
	pongWait time.Duration
}

func newConn(ws *websocket.Conn, maxFrame int64, ping time.Duration) *conn {
	c := &conn{ws: ws}
	if maxFrame > 0 {
		ws.SetReadLimit(maxFrame)
	}
	if ping > 0 {
		c.pongWait = 2 * ping
		_ = ws.SetReadDeadline(time.Now().Add(c.pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(c.pongWait))
		})
	}
	return c
}

// read returns the next frame's type and raw bytes.
func (c *conn) read() (string, []byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return "", nil, err
	}
	if c.pongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	var env envelope
	if err := decodeFrame(data, &env); err != nil {
		return "", data, err
	}
	return env.Type, data, nil
}

func (c *conn) write(frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// keepAlive pings until ctx is done or a ping fails.
func (c *conn) keepAlive(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				logger.Debug("relay ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *conn) close(code int, reason string) {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.mu.Unlock()
	_ = c.ws.Close()
}
