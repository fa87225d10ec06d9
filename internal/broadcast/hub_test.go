package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/platformer/internal/protocol"
)

const testTopic = "score:platformer"

type recordCall struct {
	gameID, playerID int64
	score            int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
	err   error
}

func (r *fakeRecorder) CreateGameplayRecord(_ context.Context, gameID, playerID int64, score int) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return Record{}, r.err
	}
	r.calls = append(r.calls, recordCall{gameID, playerID, score})
	return Record{ID: int64(len(r.calls)), GameID: gameID, PlayerID: playerID, Score: score, CreatedAt: time.Now()}, nil
}

func (r *fakeRecorder) Calls() []recordCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordCall(nil), r.calls...)
}

type fakeDirectory struct {
	players map[string]PlayerRef
	games   map[string]GameRef
}

func (d fakeDirectory) ResolvePlayer(_ context.Context, token string) (PlayerRef, bool, error) {
	p, ok := d.players[token]
	return p, ok, nil
}

func (d fakeDirectory) ResolveGame(_ context.Context, slug string) (GameRef, bool, error) {
	g, ok := d.games[slug]
	return g, ok, nil
}

func newTestHub(rec *fakeRecorder) *Hub {
	dir := fakeDirectory{
		players: map[string]PlayerRef{
			"token-3": {ID: 3, Username: "ada"},
			"token-5": {ID: 5, Username: "bob"},
		},
		games: map[string]GameRef{
			"platformer": {ID: 1, Slug: "platformer", Title: "Platformer"},
		},
	}
	return NewHub(rec, dir, HubConfig{MemberBuffer: 256})
}

func connect(t *testing.T, h *Hub, token string) *Conn {
	t.Helper()
	c, err := h.Connect(context.Background(), token)
	if err != nil {
		t.Fatalf("Connect(%q) error = %v", token, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func joinTopic(t *testing.T, c *Conn) {
	t.Helper()
	if err := c.Send(context.Background(), protocol.Message{Topic: testTopic, Event: protocol.EventJoin, Ref: "1"}); err != nil {
		t.Fatalf("join error = %v", err)
	}
	reply := expectMessage(t, c)
	r, err := protocol.DecodePayload[protocol.Reply](reply)
	if err != nil || !r.OK() {
		t.Fatalf("join reply = %s, err = %v", reply.Payload, err)
	}
}

func push(c *Conn, event string, payload string, ref string) error {
	return c.Send(context.Background(), protocol.Message{
		Topic:   testTopic,
		Event:   event,
		Payload: json.RawMessage(payload),
		Ref:     ref,
	})
}

func expectMessage(t *testing.T, c *Conn) protocol.Message {
	t.Helper()
	select {
	case m := <-c.Receive():
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return protocol.Message{}
	}
}

func expectNoMessage(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case m := <-c.Receive():
		t.Fatalf("unexpected message %s %s", m.Event, m.Payload)
	default:
	}
}

// drain collects messages until none are immediately available.
func drain(c *Conn) []protocol.Message {
	var out []protocol.Message
	for {
		select {
		case m, ok := <-c.Receive():
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestScenarioSaveScoreRecordsAndBroadcasts(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	sender := connect(t, h, "token-3")
	other := connect(t, h, "token-5")
	joinTopic(t, sender)
	joinTopic(t, other)

	if err := push(sender, protocol.EventSaveScore, `{"player_score":300}`, "2"); err != nil {
		t.Fatalf("push error = %v", err)
	}

	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != (recordCall{1, 3, 300}) {
		t.Fatalf("recorder calls = %+v, expected [{1 3 300}]", calls)
	}

	m := expectMessage(t, other)
	if m.Event != protocol.EventSaveScore || m.Topic != testTopic {
		t.Fatalf("broadcast = %s on %s, expected save_score on %s", m.Event, m.Topic, testTopic)
	}
	expected := `{"game_id":1,"player_id":3,"player_score":300}`
	if string(m.Payload) != expected {
		t.Errorf("broadcast payload = %s, expected %s", m.Payload, expected)
	}

	var reply protocol.Reply
	for _, m := range drain(sender) {
		if m.Event == protocol.EventReply && m.Ref == "2" {
			reply, _ = protocol.DecodePayload[protocol.Reply](m)
		}
	}
	if !reply.OK() {
		t.Errorf("sender reply = %+v, expected ok", reply)
	}
}

func TestPayloadIdentityIsIgnored(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	c := connect(t, h, "token-3")
	joinTopic(t, c)

	if err := push(c, protocol.EventSaveScore, `{"player_score":10,"player_id":99,"game_id":42}`, "2"); err != nil {
		t.Fatalf("push error = %v", err)
	}
	if calls := rec.Calls(); len(calls) != 1 || calls[0] != (recordCall{1, 3, 10}) {
		t.Errorf("recorder calls = %+v, expected [{1 3 10}]", calls)
	}
}

func TestSaveScoreWithoutIdentityFailsClosed(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	anon := connect(t, h, "")
	listener := connect(t, h, "token-5")
	joinTopic(t, anon)
	joinTopic(t, listener)

	err := push(anon, protocol.EventSaveScore, `{"player_score":300}`, "2")
	if !errors.Is(err, ErrAuthContextMissing) {
		t.Fatalf("push error = %v, expected ErrAuthContextMissing", err)
	}
	if calls := rec.Calls(); len(calls) != 0 {
		t.Errorf("recorder calls = %+v, expected none", calls)
	}
	expectNoMessage(t, listener)

	m := expectMessage(t, anon)
	r, _ := protocol.DecodePayload[protocol.Reply](m)
	if r.OK() {
		t.Error("anonymous push got ok reply")
	}
}

func TestOnSaveScoreRequiresBothIdentities(t *testing.T) {
	player := PlayerRef{ID: 3}
	game := GameRef{ID: 1}

	tests := []struct {
		name string
		cc   ConnContext
	}{
		{"empty", ConnContext{}},
		{"player only", ConnContext{}.WithPlayer(player)},
		{"game only", ConnContext{}.WithGame(game)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			h := newTestHub(rec)
			reply, err := h.OnSaveScore(context.Background(), testTopic, protocol.SaveScorePayload{PlayerScore: 1}, tc.cc)
			if !errors.Is(err, ErrAuthContextMissing) {
				t.Errorf("OnSaveScore() error = %v, expected ErrAuthContextMissing", err)
			}
			if reply.OK() {
				t.Error("OnSaveScore() reply is ok")
			}
			if len(rec.Calls()) != 0 {
				t.Error("record created without identity")
			}
		})
	}
}

func TestSaveScoreWriteError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	h := newTestHub(rec)
	sender := connect(t, h, "token-3")
	other := connect(t, h, "token-5")
	joinTopic(t, sender)
	joinTopic(t, other)

	err := push(sender, protocol.EventSaveScore, `{"player_score":300}`, "2")
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("push error = %v, expected ErrWrite", err)
	}

	m := expectMessage(t, sender)
	r, _ := protocol.DecodePayload[protocol.Reply](m)
	if r.OK() || r.Reason() != "write failed" {
		t.Errorf("reply = %+v, expected write failed error", r)
	}
	expectNoMessage(t, other)

	// The connection keeps working.
	if err := push(sender, protocol.EventBroadcastScore, `{"player_score":5}`, "3"); err != nil {
		t.Fatalf("broadcast_score after write error = %v", err)
	}
	m = expectMessage(t, other)
	if m.Event != protocol.EventBroadcastScore {
		t.Errorf("event = %s, expected broadcast_score", m.Event)
	}
}

func TestSaveScoreWithoutScoreIsRejected(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	sender := connect(t, h, "token-3")
	other := connect(t, h, "token-5")
	joinTopic(t, sender)
	joinTopic(t, other)

	for i, payload := range []string{`{}`, `{"player_score":null}`} {
		err := push(sender, protocol.EventSaveScore, payload, fmt.Sprint(i+2))
		if !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("push(%s) error = %v, expected ErrInvalidPayload", payload, err)
		}
		r, _ := protocol.DecodePayload[protocol.Reply](expectMessage(t, sender))
		if r.OK() || r.Reason() != "invalid payload" {
			t.Errorf("reply = %+v, expected invalid payload error", r)
		}
	}
	if n := len(rec.Calls()); n != 0 {
		t.Errorf("recorded %d gameplays, expected 0", n)
	}
	expectNoMessage(t, other)

	// An explicit zero is a real score.
	if err := push(sender, protocol.EventSaveScore, `{"player_score":0}`, "9"); err != nil {
		t.Fatalf("push(zero) error = %v", err)
	}
	if n := len(rec.Calls()); n != 1 {
		t.Errorf("recorded %d gameplays, expected 1", n)
	}
}

func TestBroadcastScoreIsNotPersisted(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	sender := connect(t, h, "token-3")
	other := connect(t, h, "token-5")
	joinTopic(t, sender)
	joinTopic(t, other)

	if err := push(sender, protocol.EventBroadcastScore, `{"player_score":70}`, "2"); err != nil {
		t.Fatalf("push error = %v", err)
	}
	if len(rec.Calls()) != 0 {
		t.Error("broadcast_score was persisted")
	}
	m := expectMessage(t, other)
	expected := `{"game_id":1,"player_id":3,"player_score":70}`
	if m.Event != protocol.EventBroadcastScore || string(m.Payload) != expected {
		t.Errorf("got %s %s, expected broadcast_score %s", m.Event, m.Payload, expected)
	}
}

func TestPerMemberOrderingMatchesEmission(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(rec)
	a := connect(t, h, "token-3")
	b := connect(t, h, "token-5")
	watcher := connect(t, h, "")
	joinTopic(t, a)
	joinTopic(t, b)
	joinTopic(t, watcher)

	const perSender = 40
	var wg sync.WaitGroup
	for _, c := range []*Conn{a, b} {
		wg.Add(1)
		go func(c *Conn) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_ = push(c, protocol.EventSaveScore, fmt.Sprintf(`{"player_score":%d}`, i), "")
			}
		}(c)
	}
	wg.Wait()

	scores := func(c *Conn) []string {
		var out []string
		for _, m := range drain(c) {
			if m.Event == protocol.EventSaveScore {
				out = append(out, string(m.Payload))
			}
		}
		return out
	}

	seen := scores(watcher)
	if len(seen) != 2*perSender {
		t.Fatalf("watcher got %d broadcasts, expected %d", len(seen), 2*perSender)
	}
	for _, c := range []*Conn{a, b} {
		got := scores(c)
		if len(got) != len(seen) {
			t.Fatalf("member got %d broadcasts, expected %d", len(got), len(seen))
		}
		for i := range got {
			if got[i] != seen[i] {
				t.Fatalf("message %d = %s, watcher saw %s", i, got[i], seen[i])
			}
		}
	}

	// Each sender's own scores arrive in the order it pushed them.
	last := map[string]int{}
	for _, p := range seen {
		var b protocol.ScoreBroadcast
		if err := json.Unmarshal([]byte(p), &b); err != nil {
			t.Fatalf("bad payload %s", p)
		}
		key := fmt.Sprint(b.PlayerID)
		if prev, ok := last[key]; ok && b.PlayerScore <= prev {
			t.Fatalf("player %s score %d arrived after %d", key, b.PlayerScore, prev)
		}
		last[key] = b.PlayerScore
	}
}

func TestJoinAndLeave(t *testing.T) {
	h := newTestHub(&fakeRecorder{})
	c := connect(t, h, "token-3")

	joinTopic(t, c)
	joinTopic(t, c) // rejoin is a no-op
	if got := h.MemberCount(testTopic); got != 1 {
		t.Errorf("MemberCount() = %d, expected 1", got)
	}

	if err := c.Send(context.Background(), protocol.Message{Topic: testTopic, Event: protocol.EventLeave, Ref: "9"}); err != nil {
		t.Fatalf("leave error = %v", err)
	}
	expectMessage(t, c)
	if got := h.Topics(); len(got) != 0 {
		t.Errorf("Topics() = %v, expected empty topic to be dropped", got)
	}

	if err := push(c, protocol.EventSaveScore, `{"player_score":1}`, "10"); !errors.Is(err, ErrNotJoined) {
		t.Errorf("push after leave error = %v, expected ErrNotJoined", err)
	}
}

func TestJoinRejections(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		err   error
	}{
		{"unknown game", "score:tetris", ErrUnknownGame},
		{"not a score topic", "lobby:1", ErrUnknownTopic},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHub(&fakeRecorder{})
			c := connect(t, h, "token-3")
			err := c.Send(context.Background(), protocol.Message{Topic: tc.topic, Event: protocol.EventJoin, Ref: "1"})
			if !errors.Is(err, tc.err) {
				t.Errorf("join error = %v, expected %v", err, tc.err)
			}
			r, _ := protocol.DecodePayload[protocol.Reply](expectMessage(t, c))
			if r.OK() {
				t.Error("join reply is ok")
			}
			if len(h.Topics()) != 0 {
				t.Errorf("Topics() = %v, expected none", h.Topics())
			}
		})
	}
}

func TestConnectUnknownToken(t *testing.T) {
	h := newTestHub(&fakeRecorder{})
	if _, err := h.Connect(context.Background(), "nope"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("Connect() error = %v, expected ErrUnknownToken", err)
	}
}

func TestHeartbeatReply(t *testing.T) {
	h := newTestHub(&fakeRecorder{})
	c := connect(t, h, "")
	if err := c.Send(context.Background(), protocol.Message{Topic: protocol.TopicHeartbeat, Event: protocol.EventHeartbeat, Ref: "7"}); err != nil {
		t.Fatalf("heartbeat error = %v", err)
	}
	m := expectMessage(t, c)
	r, _ := protocol.DecodePayload[protocol.Reply](m)
	if m.Topic != protocol.TopicHeartbeat || m.Ref != "7" || !r.OK() {
		t.Errorf("heartbeat reply = %+v", m)
	}
}

func TestCloseLeavesTopics(t *testing.T) {
	h := newTestHub(&fakeRecorder{})
	c, err := h.Connect(context.Background(), "token-3")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	joinTopic(t, c)
	c.Close()
	c.Close()

	if got := h.MemberCount(testTopic); got != 0 {
		t.Errorf("MemberCount() after Close = %d, expected 0", got)
	}
	if err := c.Send(context.Background(), protocol.Message{Topic: testTopic, Event: protocol.EventJoin}); err == nil {
		t.Error("Send() on closed connection should fail")
	}
}

func TestChannelMemberDropsOldest(t *testing.T) {
	m := NewChannelMember("m", 2)
	for i := 1; i <= 3; i++ {
		m.Send(protocol.Message{Topic: "t", Event: fmt.Sprint(i)})
	}

	var got []string
	for len(m.Messages()) > 0 {
		got = append(got, (<-m.Messages()).Event)
	}
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("messages = %v, expected [2 3]", got)
	}
}

func TestLocalConnReportsRejectionsInReply(t *testing.T) {
	h := newTestHub(&fakeRecorder{})
	anon := connect(t, h, "")
	joinTopic(t, anon)
	local := anon.Local()

	err := local.Send(context.Background(), protocol.Message{
		Topic:   testTopic,
		Event:   protocol.EventSaveScore,
		Payload: json.RawMessage(`{"player_score":300}`),
		Ref:     "2",
	})
	if err != nil {
		t.Fatalf("Send() error = %v, expected nil", err)
	}

	r, _ := protocol.DecodePayload[protocol.Reply](expectMessage(t, anon))
	if r.OK() || r.Reason() != "unauthorized" {
		t.Errorf("reply = %+v, expected unauthorized error", r)
	}

	anon.Close()
	if err := local.Send(context.Background(), protocol.Message{Topic: testTopic, Event: protocol.EventJoin}); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Send() after Close error = %v, expected ErrConnClosed", err)
	}
}

func TestChannelMemberCloseEndsMessages(t *testing.T) {
	m := NewChannelMember("m", 4)
	m.Send(protocol.Message{Topic: "t", Event: "1"})
	m.Close()
	m.Close()
	m.Send(protocol.Message{Topic: "t", Event: "2"})

	var got []string
	for msg := range m.Messages() {
		got = append(got, msg.Event)
	}
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("messages = %v, expected [1]", got)
	}
	select {
	case <-m.Done():
	default:
		t.Error("Done() should be closed")
	}
}
