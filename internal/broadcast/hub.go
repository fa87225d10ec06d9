package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/platformer/internal/protocol"
)

// HubConfig holds configuration for the hub.
type HubConfig struct {
	MemberBuffer int         // Messages buffered per connection before dropping
	Logger       *log.Logger // Optional
}

// topic is one broadcast group.
type topic struct {
	name string

	// mu serializes emission so every member sees the same order.
	mu      sync.Mutex
	members map[string]Member
}

// Hub routes score messages between connections.
type Hub struct {
	recorder  Recorder
	directory Directory
	config    HubConfig
	logger    *log.Logger

	mu     sync.RWMutex
	topics map[string]*topic
}

// NewHub creates a hub. The recorder persists save_score pushes and the
// directory resolves tokens and topics at connect and join time.
func NewHub(recorder Recorder, directory Directory, cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.MemberBuffer < 1 {
		cfg.MemberBuffer = 64
	}
	return &Hub{
		recorder:  recorder,
		directory: directory,
		config:    cfg,
		logger:    logger,
		topics:    make(map[string]*topic),
	}
}

// Join adds m to the named topic, creating it on first use.
// It returns the number of members after joining.
func (h *Hub) Join(name string, m Member) int {
	h.mu.Lock()
	t, ok := h.topics[name]
	if !ok {
		t = &topic{name: name, members: make(map[string]Member)}
		h.topics[name] = t
	}
	// Hold the hub lock so Leave cannot drop the topic in between.
	t.mu.Lock()
	h.mu.Unlock()
	defer t.mu.Unlock()

	t.members[m.ID()] = m
	return len(t.members)
}

// Leave removes a member from a topic. Empty topics are dropped.
func (h *Hub) Leave(name, memberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[name]
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.members, memberID)
	empty := len(t.members) == 0
	t.mu.Unlock()
	if empty {
		delete(h.topics, name)
	}
}

// LeaveAll removes a member from every topic.
func (h *Hub) LeaveAll(memberID string) {
	for _, name := range h.Topics() {
		h.Leave(name, memberID)
	}
}

// Topics returns the names of live topics, sorted.
func (h *Hub) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.topics))
	for name := range h.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemberCount returns the number of members in a topic.
func (h *Hub) MemberCount(name string) int {
	h.mu.RLock()
	t, ok := h.topics[name]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.members)
}

// Broadcast sends event with payload to every member of a topic.
// It returns the number of members the message was queued for.
func (h *Hub) Broadcast(name, event string, payload any) (int, error) {
	msg, err := protocol.NewMessage(name, event, "", payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	t, ok := h.topics[name]
	h.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, m := range t.members {
		if !m.Send(msg) {
			h.logger.Warn("member buffer full, dropped oldest message", "topic", name, "member", id)
		}
	}
	return len(t.members), nil
}

// OnSaveScore records a pushed score and rebroadcasts it on the topic.
// The player and game come from cc only. The returned reply is always
// safe to send back; err describes why it is an error reply.
func (h *Hub) OnSaveScore(ctx context.Context, name string, p protocol.SaveScorePayload, cc ConnContext) (protocol.Reply, error) {
	id, ok := cc.Identity()
	if !ok {
		h.logger.Warn("rejected save_score without identity", "topic", name)
		return protocol.ErrorReply("unauthorized"), ErrAuthContextMissing
	}

	rec, err := h.recorder.CreateGameplayRecord(ctx, id.GameID, id.PlayerID, p.PlayerScore)
	if err != nil {
		h.logger.Error("failed to save gameplay", "topic", name,
			"game_id", id.GameID, "player_id", id.PlayerID, "score", p.PlayerScore, "err", err)
		return protocol.ErrorReply("write failed"), fmt.Errorf("%w: %w", ErrWrite, err)
	}

	evt := protocol.ScoreEvent{GameID: rec.GameID, PlayerID: rec.PlayerID, Score: rec.Score}
	n, err := h.Broadcast(name, protocol.EventSaveScore, evt.Broadcast())
	if err != nil {
		// Already persisted; the sender still gets its ack.
		h.logger.Error("failed to broadcast score", "topic", name, "err", err)
	}
	h.logger.Info("score saved", "topic", name, "game_id", rec.GameID,
		"player_id", rec.PlayerID, "score", rec.Score, "members", n)
	return protocol.OKReply(), nil
}

// OnBroadcastScore rebroadcasts a score without persisting it.
func (h *Hub) OnBroadcastScore(_ context.Context, name string, p protocol.SaveScorePayload, cc ConnContext) (protocol.Reply, error) {
	id, ok := cc.Identity()
	if !ok {
		return protocol.ErrorReply("unauthorized"), ErrAuthContextMissing
	}

	evt := protocol.ScoreEvent{GameID: id.GameID, PlayerID: id.PlayerID, Score: p.PlayerScore}
	if _, err := h.Broadcast(name, protocol.EventBroadcastScore, evt.Broadcast()); err != nil {
		return protocol.ErrorReply("broadcast failed"), err
	}
	return protocol.OKReply(), nil
}

// Dispatch routes a score push to its handler.
func (h *Hub) Dispatch(ctx context.Context, msg protocol.Message, cc ConnContext) (protocol.Reply, error) {
	if !protocol.IsScoreEvent(msg.Event) {
		return protocol.ErrorReply("unknown event"), fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Event)
	}

	p, err := protocol.DecodeScorePush(msg)
	if err != nil {
		return protocol.ErrorReply("invalid payload"), errors.Join(ErrInvalidPayload, err)
	}

	if msg.Event == protocol.EventBroadcastScore {
		return h.OnBroadcastScore(ctx, msg.Topic, p, cc)
	}
	return h.OnSaveScore(ctx, msg.Topic, p, cc)
}
