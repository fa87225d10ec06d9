// Package scoresync pushes local scores to the broadcast server and
// receives the scores other players record on the same topic.
package scoresync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/platformer/internal/protocol"
)

var (
	// ErrNotConnected is returned when pushing without a joined topic.
	// Nothing is sent.
	ErrNotConnected = errors.New("scoresync: not connected")
	// ErrAckTimeout is returned when the server does not acknowledge in time.
	ErrAckTimeout = errors.New("scoresync: acknowledgement timed out")
	// ErrClosed is returned for requests pending when the transport closes.
	ErrClosed = errors.New("scoresync: connection closed")
)

// PushError is an error acknowledgement from the server.
type PushError struct {
	Event  string
	Reason string
}

func (e *PushError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("scoresync: %s rejected", e.Event)
	}
	return fmt.Sprintf("scoresync: %s rejected: %s", e.Event, e.Reason)
}

// State is the channel connection state.
type State int

const (
	StateDisconnected State = iota
	StateJoining
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateJoining:
		return "Joining"
	case StateJoined:
		return "Joined"
	default:
		return "Unknown"
	}
}

// Transport carries protocol messages to and from the server.
type Transport interface {
	Send(ctx context.Context, msg protocol.Message) error
	// Receive is closed when the connection ends.
	Receive() <-chan protocol.Message
	Close() error
}

// Handler receives score broadcasts. It runs on the client's read
// goroutine and must not block.
type Handler func(event string, score protocol.ScoreBroadcast)

// Config holds client settings.
type Config struct {
	AckTimeout time.Duration
	Logger     *log.Logger // Optional
}

// Client is a score sync channel client. Safe for concurrent use.
type Client struct {
	transport  Transport
	ackTimeout time.Duration
	logger     *log.Logger

	mu         sync.Mutex
	state      State
	topic      string
	nextRef    uint64
	pending    map[string]chan protocol.Reply
	handlers   []Handler
	lastSynced int
	hasSynced  bool
	closed     bool

	done chan struct{}
}

// NewClient creates a client over t and starts reading from it.
func NewClient(t Transport, cfg Config) *Client {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Client{
		transport:  t,
		ackTimeout: cfg.AckTimeout,
		logger:     logger,
		pending:    make(map[string]chan protocol.Reply),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Topic returns the joined or joining topic.
func (c *Client) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

// LastSynced returns the last score the server acknowledged.
func (c *Client) LastSynced() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSynced, c.hasSynced
}

// Done closes when the transport has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Subscribe registers h for score broadcasts on the joined topic.
func (c *Client) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Join joins topic. Calling it while Joining or Joined does nothing.
func (c *Client) Join(ctx context.Context, topic string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateDisconnected {
		current := c.topic
		c.mu.Unlock()
		if current != topic {
			return fmt.Errorf("scoresync: already on topic %s", current)
		}
		return nil
	}
	c.state = StateJoining
	c.topic = topic
	c.mu.Unlock()

	reply, err := c.request(ctx, topic, protocol.EventJoin, nil)
	if err == nil && !reply.OK() {
		err = &PushError{Event: protocol.EventJoin, Reason: reply.Reason()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateDisconnected
		c.logger.Warn("join failed", "topic", topic, "err", err)
		return err
	}
	c.state = StateJoined
	c.logger.Info("joined", "topic", topic)
	return nil
}

// Leave leaves the joined topic.
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	topic := c.topic
	joined := c.state == StateJoined
	c.state = StateDisconnected
	c.mu.Unlock()
	if !joined {
		return nil
	}
	_, err := c.request(ctx, topic, protocol.EventLeave, nil)
	return err
}

// PushScore records score on the server. On success the last-synced
// marker moves to score. Failures are returned as-is; nothing is retried.
func (c *Client) PushScore(ctx context.Context, score int) error {
	topic, err := c.joinedTopic()
	if err != nil {
		return err
	}

	reply, err := c.request(ctx, topic, protocol.EventSaveScore, protocol.SaveScorePayload{PlayerScore: score})
	if err != nil {
		return err
	}
	if !reply.OK() {
		return &PushError{Event: protocol.EventSaveScore, Reason: reply.Reason()}
	}

	c.mu.Lock()
	c.lastSynced, c.hasSynced = score, true
	c.mu.Unlock()
	return nil
}

// BroadcastScore shares score with the topic without recording it.
func (c *Client) BroadcastScore(ctx context.Context, score int) error {
	topic, err := c.joinedTopic()
	if err != nil {
		return err
	}

	reply, err := c.request(ctx, topic, protocol.EventBroadcastScore, protocol.SaveScorePayload{PlayerScore: score})
	if err != nil {
		return err
	}
	if !reply.OK() {
		return &PushError{Event: protocol.EventBroadcastScore, Reason: reply.Reason()}
	}
	return nil
}

// Heartbeat sends a keep-alive and waits for its reply.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, err := c.request(ctx, protocol.TopicHeartbeat, protocol.EventHeartbeat, nil)
	return err
}

// KeepAlive sends heartbeats every interval until ctx ends or the
// connection closes.
func (c *Client) KeepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.Heartbeat(ctx); err != nil {
				c.logger.Warn("heartbeat failed", "err", err)
			}
		}
	}
}

// Close closes the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) joinedTopic() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateJoined {
		return "", ErrNotConnected
	}
	return c.topic, nil
}

// request sends a message and waits for the reply with the same ref.
func (c *Client) request(ctx context.Context, topic, event string, payload any) (protocol.Reply, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return protocol.Reply{}, ErrClosed
	}
	c.nextRef++
	ref := strconv.FormatUint(c.nextRef, 10)
	ch := make(chan protocol.Reply, 1)
	c.pending[ref] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, ref)
		c.mu.Unlock()
	}()

	msg, err := protocol.NewMessage(topic, event, ref, payload)
	if err != nil {
		return protocol.Reply{}, err
	}
	if err := c.transport.Send(ctx, msg); err != nil {
		return protocol.Reply{}, fmt.Errorf("scoresync: send %s: %w", event, err)
	}

	timer := time.NewTimer(c.ackTimeout)
	defer timer.Stop()

	select {
	case reply, ok := <-ch:
		if !ok {
			return protocol.Reply{}, ErrClosed
		}
		return reply, nil
	case <-timer.C:
		return protocol.Reply{}, ErrAckTimeout
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	}
}

func (c *Client) readLoop() {
	defer c.shutdown()

	for msg := range c.transport.Receive() {
		switch {
		case msg.Event == protocol.EventReply:
			c.deliverReply(msg)

		case protocol.IsScoreEvent(msg.Event):
			c.dispatch(msg)

		case msg.Event == protocol.EventError || msg.Event == protocol.EventClose:
			c.mu.Lock()
			if msg.Topic == c.topic {
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			c.logger.Warn("channel closed by server", "topic", msg.Topic, "event", msg.Event)
		}
	}
}

func (c *Client) deliverReply(msg protocol.Message) {
	reply, err := protocol.DecodePayload[protocol.Reply](msg)
	if err != nil {
		c.logger.Warn("bad reply", "ref", msg.Ref, "err", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[msg.Ref]
	c.mu.Unlock()
	if !ok {
		// Timed out or cancelled; the caller is gone.
		return
	}
	select {
	case ch <- reply:
	default:
	}
}

func (c *Client) dispatch(msg protocol.Message) {
	c.mu.Lock()
	if msg.Topic != c.topic || c.state != StateJoined {
		c.mu.Unlock()
		return
	}
	handlers := append([]Handler(nil), c.handlers...)
	c.mu.Unlock()

	score, err := protocol.DecodePayload[protocol.ScoreBroadcast](msg)
	if err != nil {
		c.logger.Warn("bad score broadcast", "err", err)
		return
	}
	for _, h := range handlers {
		h(msg.Event, score)
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.state = StateDisconnected
	for ref, ch := range c.pending {
		close(ch)
		delete(c.pending, ref)
	}
	c.mu.Unlock()
	close(c.done)
	c.logger.Debug("transport closed")
}
