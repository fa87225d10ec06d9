package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/platformer/internal/protocol"
)

// Conn is the server side of one client connection. Inbound messages are
// fed to Send; replies and broadcasts come out of Receive in order.
//
// A Conn also satisfies the client transport interface, so in-process
// front-ends can talk to the hub without a socket.
type Conn struct {
	id     string
	hub    *Hub
	member *ChannelMember
	base   ConnContext

	mu    sync.Mutex
	games map[string]GameRef // joined topic -> game
}

// Connect authenticates a connection by player token. An empty token
// yields an anonymous connection that may join topics and receive scores
// but whose pushes are rejected.
func (h *Hub) Connect(ctx context.Context, token string) (*Conn, error) {
	if token == "" {
		return h.ConnectAnonymous(), nil
	}
	p, ok, err := h.directory.ResolvePlayer(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("broadcast: resolve player: %w", err)
	}
	if !ok {
		return nil, ErrUnknownToken
	}
	return h.ConnectPlayer(p), nil
}

// ConnectPlayer opens a connection for an already authenticated player.
func (h *Hub) ConnectPlayer(p PlayerRef) *Conn {
	return h.newConn(ConnContext{}.WithPlayer(p))
}

// ConnectAnonymous opens a connection with no player attached.
func (h *Hub) ConnectAnonymous() *Conn {
	return h.newConn(ConnContext{})
}

func (h *Hub) newConn(base ConnContext) *Conn {
	id := uuid.NewString()
	c := &Conn{
		id:     id,
		hub:    h,
		member: NewChannelMember(id, h.config.MemberBuffer),
		base:   base,
		games:  make(map[string]GameRef),
	}
	if p, ok := base.Player(); ok {
		h.logger.Debug("connection opened", "conn", id, "player", p.Username)
	} else {
		h.logger.Debug("connection opened", "conn", id, "player", "anonymous")
	}
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// Player returns the authenticated player, if any.
func (c *Conn) Player() (PlayerRef, bool) {
	return c.base.Player()
}

// Context returns the connection context for a topic.
func (c *Conn) Context(topic string) ConnContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc := c.base
	if g, ok := c.games[topic]; ok {
		cc = cc.WithGame(g)
	}
	return cc
}

// Send handles one inbound message. Messages with a ref, and failures,
// get a reply queued on Receive.
// The returned error is informational; the connection stays usable.
func (c *Conn) Send(ctx context.Context, msg protocol.Message) error {
	select {
	case <-c.member.Done():
		return ErrConnClosed
	default:
	}

	reply, err := c.handle(ctx, msg)
	if msg.Ref != "" || err != nil {
		c.reply(msg, reply)
	}
	return err
}

func (c *Conn) handle(ctx context.Context, msg protocol.Message) (protocol.Reply, error) {
	if msg.Topic == protocol.TopicHeartbeat {
		if msg.Event == protocol.EventHeartbeat {
			return protocol.OKReply(), nil
		}
		return protocol.ErrorReply("unknown event"), fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Event)
	}

	switch msg.Event {
	case protocol.EventJoin:
		return c.join(ctx, msg.Topic)
	case protocol.EventLeave:
		c.leave(msg.Topic)
		return protocol.OKReply(), nil
	}

	if !c.joined(msg.Topic) {
		return protocol.ErrorReply("not joined"), fmt.Errorf("%w: %s", ErrNotJoined, msg.Topic)
	}
	return c.hub.Dispatch(ctx, msg, c.Context(msg.Topic))
}

func (c *Conn) join(ctx context.Context, topic string) (protocol.Reply, error) {
	if c.joined(topic) {
		return protocol.OKReply(), nil
	}

	slug, ok := protocol.SlugFromTopic(topic)
	if !ok {
		return protocol.ErrorReply("unmatched topic"), fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	g, ok, err := c.hub.directory.ResolveGame(ctx, slug)
	if err != nil {
		c.hub.logger.Error("failed to resolve game", "slug", slug, "err", err)
		return protocol.ErrorReply("lookup failed"), fmt.Errorf("broadcast: resolve game: %w", err)
	}
	if !ok {
		return protocol.ErrorReply("unknown game"), fmt.Errorf("%w: %s", ErrUnknownGame, slug)
	}

	c.mu.Lock()
	c.games[topic] = g
	c.mu.Unlock()

	n := c.hub.Join(topic, c.member)
	c.hub.logger.Info("joined topic", "conn", c.id, "topic", topic, "members", n)
	return protocol.OKReply(), nil
}

func (c *Conn) leave(topic string) {
	c.mu.Lock()
	delete(c.games, topic)
	c.mu.Unlock()
	c.hub.Leave(topic, c.id)
}

func (c *Conn) joined(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.games[topic]
	return ok
}

func (c *Conn) reply(msg protocol.Message, r protocol.Reply) {
	out, err := protocol.NewMessage(msg.Topic, protocol.EventReply, msg.Ref, r)
	if err != nil {
		c.hub.logger.Error("failed to encode reply", "conn", c.id, "err", err)
		return
	}
	c.member.Send(out)
}

// Receive returns the outbound message stream. It is closed by Close.
func (c *Conn) Receive() <-chan protocol.Message {
	return c.member.Messages()
}

// Done closes when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.member.Done()
}

// Close leaves every topic. Safe to call multiple times.
func (c *Conn) Close() error {
	c.hub.LeaveAll(c.id)
	c.mu.Lock()
	clear(c.games)
	c.mu.Unlock()
	c.member.Close()
	return nil
}

// LocalConn is a Conn used as an in-process client transport.
// Like a socket, its Send fails only when the connection is gone;
// rejected messages are reported through their reply.
type LocalConn struct {
	*Conn
}

// Local returns c as a client transport.
func (c *Conn) Local() LocalConn {
	return LocalConn{Conn: c}
}

// Send hands msg to the connection.
func (l LocalConn) Send(ctx context.Context, msg protocol.Message) error {
	if err := l.Conn.Send(ctx, msg); errors.Is(err, ErrConnClosed) {
		return err
	}
	return nil
}
