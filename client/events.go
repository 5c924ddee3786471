package client

import (
	"context"
	"errors"
	"strings"

	"cube-panel/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamEvents subscribes to the device's event socket and calls fn for each
// event until ctx is done or the connection drops. A cancelled ctx is not an error.
func (c *Client) StreamEvents(ctx context.Context, fn func(models.WSMessage)) error {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/api/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return &TransportError{Op: "dial /api/ws", Err: err}
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg models.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return &TransportError{Op: "read /api/ws", Err: err}
		}
		c.log.Debug("event", zap.String("type", msg.Type))
		fn(msg)
	}
}
