package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var emptyObject = json.RawMessage(`{}`)

// Encode builds a wire message with payload marshalled as JSON.
// A nil payload is sent as an empty object.
func Encode(topic, event, ref string, payload any) ([]byte, error) {
	msg, err := NewMessage(topic, event, ref, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// NewMessage builds a Message without serializing the envelope.
func NewMessage(topic, event, ref string, payload any) (Message, error) {
	if topic == "" || event == "" {
		return Message{}, errors.New("protocol: topic and event are required")
	}
	raw := emptyObject
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("protocol: encode %s payload: %w", event, err)
		}
		raw = b
	}
	return Message{Topic: topic, Event: event, Payload: raw, Ref: ref}, nil
}

// Decode parses a wire message.
func Decode(b []byte) (Message, error) {
	if len(b) == 0 {
		return Message{}, errors.New("protocol: empty message")
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("protocol: decode message: %w", err)
	}
	if m.Topic == "" || m.Event == "" {
		return Message{}, errors.New("protocol: message missing topic or event")
	}
	return m, nil
}

// DecodePayload unmarshals the message payload into T.
func DecodePayload[T any](m Message) (T, error) {
	var out T
	if len(m.Payload) == 0 {
		return out, fmt.Errorf("protocol: empty payload for %q", m.Event)
	}
	if err := json.Unmarshal(m.Payload, &out); err != nil {
		return out, fmt.Errorf("protocol: decode %s payload: %w", m.Event, err)
	}
	return out, nil
}

// ErrMissingScore rejects a score push whose payload has no player_score.
var ErrMissingScore = errors.New("protocol: payload has no player_score")

// DecodeScorePush decodes a save_score or broadcast_score payload. Unlike
// DecodePayload it tells an explicit zero apart from a missing field.
func DecodeScorePush(m Message) (SaveScorePayload, error) {
	var raw struct {
		PlayerScore *int `json:"player_score"`
	}
	if len(m.Payload) == 0 {
		return SaveScorePayload{}, fmt.Errorf("protocol: empty payload for %q", m.Event)
	}
	if err := json.Unmarshal(m.Payload, &raw); err != nil {
		return SaveScorePayload{}, fmt.Errorf("protocol: decode %s payload: %w", m.Event, err)
	}
	if raw.PlayerScore == nil {
		return SaveScorePayload{}, ErrMissingScore
	}
	return SaveScorePayload{PlayerScore: *raw.PlayerScore}, nil
}

// NewReply builds a reply payload. A nil response becomes an empty object.
func NewReply(status string, response any) (Reply, error) {
	raw := emptyObject
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return Reply{}, fmt.Errorf("protocol: encode reply: %w", err)
		}
		raw = b
	}
	return Reply{Status: status, Response: raw}, nil
}

// OKReply is a success reply with an empty response.
func OKReply() Reply {
	return Reply{Status: StatusOK, Response: emptyObject}
}

// ErrorReply is an error reply carrying reason.
func ErrorReply(reason string) Reply {
	b, _ := json.Marshal(ErrorResponse{Reason: reason})
	return Reply{Status: StatusError, Response: b}
}

// Reason extracts the error reason from a reply, if any.
func (r Reply) Reason() string {
	var e ErrorResponse
	if json.Unmarshal(r.Response, &e) != nil {
		return ""
	}
	return e.Reason
}

// Topic returns the score topic for a game slug.
func Topic(slug string) string {
	return TopicPrefix + slug
}

// SlugFromTopic returns the game slug of a score topic.
func SlugFromTopic(topic string) (string, bool) {
	slug, ok := strings.CutPrefix(topic, TopicPrefix)
	if !ok || slug == "" {
		return "", false
	}
	return slug, true
}
