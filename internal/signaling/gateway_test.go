package signaling

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type fakePeer struct {
	mu     sync.Mutex
	msgs   []Envelope
	closed bool
}

func (p *fakePeer) Send(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPeerClosed
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return err
	}
	p.msgs = append(p.msgs, env)
	return nil
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePeer) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Event)
	}
	return out
}

// last decodes the data of the most recent message with the given event.
func (p *fakePeer) last(t *testing.T, event string) map[string]any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.msgs) - 1; i >= 0; i-- {
		if p.msgs[i].Event == event {
			var data map[string]any
			if err := json.Unmarshal(p.msgs[i].Data, &data); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
			return data
		}
	}
	t.Fatalf("no %s message, got %v", event, p.eventsLocked())
	return nil
}

func (p *fakePeer) eventsLocked() []string {
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Event)
	}
	return out
}

// tokenVerifier accepts tokens of the form "tok-<userID>".
type tokenVerifier struct{}

func (tokenVerifier) Verify(token string) (*domain.Claims, error) {
	if !strings.HasPrefix(token, "tok-") {
		return nil, domain.ErrInvalidToken
	}
	return &domain.Claims{UserID: strings.TrimPrefix(token, "tok-")}, nil
}

type stubGuard struct {
	allowed map[string]bool // roomID/userID
}

func (g stubGuard) CanJoinRoom(_ context.Context, roomID, userID string) (bool, error) {
	return g.allowed[roomID+"/"+userID], nil
}

func newTestGateway(guard RoomGuard) *Gateway {
	return NewGateway(NewRegistry(2), tokenVerifier{}, guard, zerolog.Nop())
}

func connect(t *testing.T, g *Gateway, userID string) *fakePeer {
	t.Helper()
	p := &fakePeer{}
	id, err := g.Connect("tok-"+userID, p)
	if err != nil || id != userID {
		t.Fatalf("connect %s: id=%q err=%v", userID, id, err)
	}
	return p
}

func send(g *Gateway, userID, event string, data any) {
	raw, _ := json.Marshal(data)
	msg, _ := json.Marshal(Envelope{Event: event, Data: raw})
	g.Handle(context.Background(), userID, msg)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGateway_Connect_RejectsBadToken(t *testing.T) {
	g := newTestGateway(nil)
	p := &fakePeer{}

	if _, err := g.Connect("garbage", p); err == nil {
		t.Fatalf("expected error")
	}
	if !p.isClosed() {
		t.Fatalf("unauthenticated peer must be closed")
	}
	if g.Registry().Online() != 0 {
		t.Fatalf("no presence may be created")
	}
}

func TestGateway_Connect_ReplacesPreviousConnection(t *testing.T) {
	g := newTestGateway(nil)
	first := connect(t, g, "a")
	second := connect(t, g, "a")

	if !first.isClosed() {
		t.Fatalf("replaced connection must be closed")
	}
	g.Disconnect("a", first)
	if p, ok := g.Registry().Lookup("a"); !ok || p != second {
		t.Fatalf("stale disconnect removed live presence")
	}
}

func TestGateway_RoomSymmetry(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	b := connect(t, g, "b")

	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	if users := a.last(t, EventRoomUsers)["users"].([]any); len(users) != 0 {
		t.Fatalf("first joiner should see an empty room, got %v", users)
	}

	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})
	if got := a.last(t, EventUserJoined)["userId"]; got != "b" {
		t.Fatalf("a expected userJoined{b}, got %v", got)
	}
	users := b.last(t, EventRoomUsers)["users"].([]any)
	if len(users) != 1 || users[0] != "a" {
		t.Fatalf("b expected roomUsers[a], got %v", users)
	}
	for _, ev := range b.events() {
		if ev == EventUserJoined {
			t.Fatalf("joiner must not receive its own userJoined")
		}
	}

	g.Disconnect("a", a)
	if got := b.last(t, EventUserLeft)["userId"]; got != "a" {
		t.Fatalf("b expected userLeft{a}, got %v", got)
	}
	if members := g.Registry().Members("r1"); len(members) != 1 || members[0] != "b" {
		t.Fatalf("unexpected members %v", members)
	}

	g.Disconnect("b", b)
	if len(g.Registry().Snapshot()) != 0 {
		t.Fatalf("empty room must be deleted")
	}
}

func TestGateway_LeaveRoom(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	_ = connect(t, g, "b")
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})

	send(g, "b", EventLeaveRoom, map[string]string{"roomId": "r1"})
	if got := a.last(t, EventUserLeft)["userId"]; got != "b" {
		t.Fatalf("expected userLeft{b}, got %v", got)
	}
	if g.Registry().InRoom("r1", "b") {
		t.Fatalf("b still in room")
	}
}

func TestGateway_RelayToTargetOnly(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	b := connect(t, g, "b")
	c := connect(t, g, "c")
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})

	for _, event := range []string{EventOffer, EventAnswer, EventIceCandidate} {
		send(g, "b", event, map[string]any{
			"roomId":       "r1",
			"targetUserId": "a",
			"sdp":          map[string]any{"type": event, "sdp": "v=0"},
			"candidate":    "candidate:1",
		})
		got := a.last(t, event)
		if got["senderId"] != "b" || got["roomId"] != "r1" || got["targetUserId"] != "a" {
			t.Fatalf("%s: unexpected payload %v", event, got)
		}
		if sdp, ok := got["sdp"].(map[string]any); !ok || sdp["sdp"] != "v=0" {
			t.Fatalf("%s: payload not forwarded verbatim: %v", event, got)
		}
	}

	for _, ev := range c.events() {
		if ev == EventOffer || ev == EventAnswer || ev == EventIceCandidate {
			t.Fatalf("outsider received relayed %s", ev)
		}
	}
	for _, ev := range b.events() {
		if ev == EventOffer {
			t.Fatalf("sender must not receive its own offer")
		}
	}
}

func TestGateway_RelayKeepsPayloadBytes(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	connect(t, g, "b")
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})

	data := json.RawMessage(`{"roomId":"r1","targetUserId":"a","seq":9007199254740993,"ratio":1.10,"senderId":"mallory"}`)
	msg, _ := json.Marshal(Envelope{Event: EventIceCandidate, Data: data})
	g.Handle(context.Background(), "b", msg)

	a.mu.Lock()
	var raw string
	for _, m := range a.msgs {
		if m.Event == EventIceCandidate {
			raw = string(m.Data)
		}
	}
	a.mu.Unlock()

	for _, want := range []string{`"seq":9007199254740993`, `"ratio":1.10`, `"senderId":"b"`} {
		if !strings.Contains(raw, want) {
			t.Fatalf("relayed data %s missing %s", raw, want)
		}
	}
	if strings.Contains(raw, "mallory") {
		t.Fatalf("client supplied senderId survived: %s", raw)
	}
}

func TestGateway_RelayDrops(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	c := connect(t, g, "c")
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})

	// Target outside the room.
	send(g, "a", EventOffer, map[string]any{"roomId": "r1", "targetUserId": "c", "sdp": "x"})
	if len(c.events()) != 0 {
		t.Fatalf("relay to non-member delivered: %v", c.events())
	}

	// Target offline.
	b := connect(t, g, "b")
	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})
	g.Disconnect("b", b)
	before := len(a.events())
	send(g, "a", EventOffer, map[string]any{"roomId": "r1", "targetUserId": "b", "sdp": "x"})
	if len(a.events()) != before {
		t.Fatalf("sender must get nothing back on offline target")
	}
}

func TestGateway_ThirdJoinerRejected(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")
	_ = connect(t, g, "b")
	c := connect(t, g, "c")
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})
	send(g, "c", EventJoinRoom, map[string]string{"roomId": "r1"})

	rej := c.last(t, EventJoinRejected)
	if rej["reason"] != ReasonRoomFull || rej["roomId"] != "r1" {
		t.Fatalf("unexpected rejection %v", rej)
	}
	joined := 0
	for _, ev := range a.events() {
		if ev == EventUserJoined {
			joined++
		}
	}
	if joined != 1 {
		t.Fatalf("members must not hear about a rejected joiner, got %d userJoined", joined)
	}
}

func TestGateway_RoomGuard(t *testing.T) {
	g := newTestGateway(stubGuard{allowed: map[string]bool{"r1/a": true}})
	a := connect(t, g, "a")
	b := connect(t, g, "b")

	send(g, "b", EventJoinRoom, map[string]string{"roomId": "r1"})
	if rej := b.last(t, EventJoinRejected); rej["reason"] != ReasonForbidden {
		t.Fatalf("expected forbidden, got %v", rej)
	}
	send(g, "a", EventJoinRoom, map[string]string{"roomId": "r1"})
	a.last(t, EventRoomUsers)
}

func TestGateway_PingAndGarbage(t *testing.T) {
	g := newTestGateway(nil)
	a := connect(t, g, "a")

	g.Handle(context.Background(), "a", []byte("{not json"))
	send(g, "a", "teleport", map[string]string{})
	send(g, "a", EventJoinRoom, map[string]string{})
	send(g, "a", EventPing, struct{}{})

	events := a.events()
	if len(events) != 2 || events[0] != EventJoinRejected || events[1] != EventPong {
		t.Fatalf("unexpected events %v", events)
	}
}
