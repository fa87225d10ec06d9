package scoresync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/platformer/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// WebSocketTransport is a Transport over a websocket connection.
type WebSocketTransport struct {
	conn     *websocket.Conn
	logger   *log.Logger
	incoming chan protocol.Message

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// SerializerVersion is the Phoenix serializer the client speaks: v1 sends
// each message as a JSON object.
const SerializerVersion = "1.0.0"

// Dial connects to a socket endpoint such as
// ws://localhost:4000/socket/websocket, authenticating with token.
func Dial(ctx context.Context, serverURL, token string, logger *log.Logger) (*WebSocketTransport, error) {
	u, err := socketURL(serverURL, token)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("scoresync: dial %s: %w", u.Redacted(), err)
	}
	return NewWebSocketTransport(conn, logger), nil
}

func socketURL(serverURL, token string) (*url.URL, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("scoresync: invalid server url: %w", err)
	}
	q := u.Query()
	if token != "" {
		q.Set("token", token)
	}
	q.Set("vsn", SerializerVersion)
	u.RawQuery = q.Encode()
	return u, nil
}

// NewWebSocketTransport wraps an established connection and starts reading.
func NewWebSocketTransport(conn *websocket.Conn, logger *log.Logger) *WebSocketTransport {
	if logger == nil {
		logger = log.Default()
	}
	conn.SetReadLimit(maxMessageSize)
	t := &WebSocketTransport{
		conn:     conn,
		logger:   logger,
		incoming: make(chan protocol.Message, 64),
	}
	go t.readLoop()
	return t
}

// Send writes msg as a text frame.
func (t *WebSocketTransport) Send(ctx context.Context, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("scoresync: encode %s: %w", msg.Event, err)
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive returns inbound messages. It is closed when the socket ends.
func (t *WebSocketTransport) Receive() <-chan protocol.Message {
	return t.incoming
}

// Close closes the socket. Safe to call multiple times.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

func (t *WebSocketTransport) readLoop() {
	defer close(t.incoming)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("socket read ended", "err", err)
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			t.logger.Warn("dropping malformed message", "err", err)
			continue
		}
		t.incoming <- msg
	}
}
