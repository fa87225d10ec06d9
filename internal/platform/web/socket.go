package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/platformer/internal/broadcast"
	"github.com/vovakirdan/platformer/internal/protocol"
)

const maxMessageSize = 64 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Any origin may connect; identity comes from the token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSocket authenticates the connection, upgrades it and pumps
// messages between the socket and the hub. Only the v1 (JSON object)
// serializer is spoken.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if vsn := r.URL.Query().Get("vsn"); vsn != "" && !strings.HasPrefix(vsn, "1.") {
		s.writeError(w, http.StatusBadRequest, "unsupported serializer version "+vsn)
		return
	}

	conn, err := s.hub.Connect(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, broadcast.ErrUnknownToken) {
		s.writeError(w, http.StatusForbidden, "unknown token")
		return
	}
	if err != nil {
		s.logger.Error("failed to authenticate socket", "err", err)
		s.writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}
	defer conn.Close()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	player := "anonymous"
	if p, ok := conn.Player(); ok {
		player = p.Username
	}
	s.logger.Info("socket connected", "conn", conn.ID(), "player", player, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, ws, conn)
	}()

	s.readPump(ctx, ws, conn)
	cancel()
	<-writerDone
	s.logger.Info("socket disconnected", "conn", conn.ID(), "player", player)
}

func (s *Server) readPump(ctx context.Context, ws *websocket.Conn, conn *broadcast.Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("socket read failed", "conn", conn.ID(), "err", err)
			}
			return
		}
		// Any traffic counts as liveness.
		_ = ws.SetReadDeadline(time.Now().Add(s.config.PongTimeout))

		msg, err := protocol.Decode(data)
		if err != nil {
			s.logger.Warn("dropping malformed message", "conn", conn.ID(), "err", err)
			continue
		}
		if err := conn.Send(ctx, msg); err != nil {
			s.logger.Debug("message rejected", "conn", conn.ID(),
				"topic", msg.Topic, "event", msg.Event, "err", err)
		}
	}
}

func (s *Server) writePump(ctx context.Context, ws *websocket.Conn, conn *broadcast.Conn) {
	ping := time.NewTicker(s.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = ws.SetWriteDeadline(time.Now().Add(time.Second))
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg, ok := <-conn.Receive():
			if !ok {
				_ = ws.SetWriteDeadline(time.Now().Add(time.Second))
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to encode message", "conn", conn.ID(), "err", err)
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("socket write failed", "conn", conn.ID(), "err", err)
				// Unblock the reader.
				_ = ws.Close()
				return
			}

		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}
