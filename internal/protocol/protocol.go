// Package protocol defines the JSON messages exchanged between score sync
// clients and the broadcast server. The envelope follows the Phoenix
// channels v1 serializer: every message is one JSON object. Browser clients
// using the stock socket library must select that serializer; the default
// v2 array format is not understood.
package protocol

import "encoding/json"

// Channel control events.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
	EventHeartbeat = "heartbeat"
)

// Score events.
const (
	EventSaveScore      = "save_score"
	EventBroadcastScore = "broadcast_score"
)

// TopicHeartbeat is the reserved topic for keep-alive messages.
const TopicHeartbeat = "phoenix"

// TopicPrefix is the topic namespace for per-game score channels.
const TopicPrefix = "score:"

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is the wire envelope.
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

// Reply is the payload of a phx_reply message.
type Reply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// OK reports whether the reply acknowledges success.
func (r Reply) OK() bool {
	return r.Status == StatusOK
}

// ErrorResponse is the response body of an error reply.
type ErrorResponse struct {
	Reason string `json:"reason"`
}

// SaveScorePayload is pushed by a client to record its score.
// It deliberately carries no identity fields.
type SaveScorePayload struct {
	PlayerScore int `json:"player_score"`
}

// ScoreBroadcast is delivered to every member of a score topic.
type ScoreBroadcast struct {
	GameID      int64 `json:"game_id"`
	PlayerID    int64 `json:"player_id"`
	PlayerScore int   `json:"player_score"`
}

// ScoreEvent is one score produced by a player in a game.
type ScoreEvent struct {
	GameID   int64
	PlayerID int64
	Score    int
}

// Broadcast returns the wire form of the event.
func (e ScoreEvent) Broadcast() ScoreBroadcast {
	return ScoreBroadcast{GameID: e.GameID, PlayerID: e.PlayerID, PlayerScore: e.Score}
}

// IsScoreEvent reports whether event carries a ScoreBroadcast.
func IsScoreEvent(event string) bool {
	return event == EventSaveScore || event == EventBroadcastScore
}
