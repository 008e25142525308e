package conn

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketStream adapts a WebSocket connection to a byte stream. Each
// Write is sent as one binary message; Read returns message payloads back
// to back, so frame boundaries need not line up with messages.
type WebSocketStream struct {
	ws *websocket.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu sync.Mutex
}

// NewWebSocketStream wraps ws.
func NewWebSocketStream(ws *websocket.Conn) *WebSocketStream {
	return &WebSocketStream{ws: ws}
}

// Read reads from the current binary message, advancing to the next one
// when it is exhausted. Text messages are skipped.
func (s *WebSocketStream) Read(p []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	for {
		if s.reader == nil {
			typ, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			s.reader = r
		}
		n, err := s.reader.Read(p)
		if err == io.EOF {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as one binary message.
func (s *WebSocketStream) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadDeadline sets the deadline of the underlying connection.
func (s *WebSocketStream) SetReadDeadline(t time.Time) error {
	return s.ws.SetReadDeadline(t)
}

// Close sends a close message and closes the connection.
func (s *WebSocketStream) Close() error {
	s.writeMu.Lock()
	s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.ws.Close()
}

// RemoteAddr returns the peer address.
func (s *WebSocketStream) RemoteAddr() string {
	return s.ws.RemoteAddr().String()
}
