package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/blockwire/pkg/conn"
)

// DialWebSocket connects to a server's /ws endpoint. The returned stream
// carries the game protocol in binary messages.
func DialWebSocket(ctx context.Context, url string) (*conn.WebSocketStream, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("client: websocket dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("client: websocket dial %s: %w", url, err)
	}
	return conn.NewWebSocketStream(ws), nil
}
