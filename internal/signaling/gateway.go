// Package signaling brokers WebRTC call setup between the two participants of
// a session room. It tracks presence and room membership in memory and relays
// offers, answers and ICE candidates verbatim; media never passes through it.
package signaling

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

// RoomGuard decides whether a user may enter a room. A nil guard admits everyone.
type RoomGuard interface {
	CanJoinRoom(ctx context.Context, roomID, userID string) (bool, error)
}

// Gateway is the transport-independent signaling core.
type Gateway struct {
	registry *Registry
	verifier ports.TokenVerifier
	guard    RoomGuard
	log      zerolog.Logger
}

func NewGateway(registry *Registry, verifier ports.TokenVerifier, guard RoomGuard, log zerolog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		verifier: verifier,
		guard:    guard,
		log:      log.With().Str("module", "signaling").Logger(),
	}
}

// Registry exposes the presence registry for read-only inspection.
func (g *Gateway) Registry() *Registry { return g.registry }

// Connect authenticates p. On failure the peer is closed and no state is
// created. On success p becomes the user's live connection and any previous
// connection of the same user is closed.
func (g *Gateway) Connect(token string, p Peer) (string, error) {
	claims, err := g.verifier.Verify(token)
	if err != nil {
		p.Close()
		g.log.Debug().Err(err).Msg("connection rejected")
		return "", err
	}

	if prev := g.registry.Register(claims.UserID, p); prev != nil {
		g.log.Info().Str("user_id", claims.UserID).Msg("replacing previous connection")
		prev.Close()
	}
	g.log.Info().Str("user_id", claims.UserID).Msg("peer connected")
	return claims.UserID, nil
}

// Disconnect tears down the state of p and tells remaining room members the
// user left. It is a no-op for a connection that was already replaced.
func (g *Gateway) Disconnect(userID string, p Peer) {
	exits, ok := g.registry.Unregister(userID, p)
	if !ok {
		return
	}
	for _, exit := range exits {
		g.broadcast(exit.Remaining, EventUserLeft, memberPayload{UserID: userID, RoomID: exit.RoomID})
	}
	g.log.Info().Str("user_id", userID).Int("rooms_left", len(exits)).Msg("peer disconnected")
}

// Handle processes one inbound message from userID. Malformed messages are
// logged and ignored.
func (g *Gateway) Handle(ctx context.Context, userID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.log.Warn().Err(err).Str("user_id", userID).Msg("bad json")
		metrics.SignalingMessagesTotal.WithLabelValues("invalid", "rejected").Inc()
		return
	}

	switch env.Event {
	case EventJoinRoom:
		g.handleJoin(ctx, userID, env.Data)
	case EventLeaveRoom:
		g.handleLeave(userID, env.Data)
	case EventOffer, EventAnswer, EventIceCandidate:
		g.handleRelay(userID, env.Event, env.Data)
	case EventPing:
		g.sendTo(userID, EventPong, struct{}{})
		metrics.SignalingMessagesTotal.WithLabelValues(EventPing, "handled").Inc()
	default:
		g.log.Warn().Str("user_id", userID).Str("event", env.Event).Msg("unknown signal")
		metrics.SignalingMessagesTotal.WithLabelValues("unknown", "rejected").Inc()
	}
}

func (g *Gateway) handleJoin(ctx context.Context, userID string, data json.RawMessage) {
	var in roomPayload
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		g.reject(userID, in.RoomID, ReasonInvalid)
		return
	}

	if g.guard != nil {
		ok, err := g.guard.CanJoinRoom(ctx, in.RoomID, userID)
		if err != nil {
			g.log.Error().Err(err).Str("room_id", in.RoomID).Msg("room guard failed")
		}
		if err != nil || !ok {
			g.reject(userID, in.RoomID, ReasonForbidden)
			return
		}
	}

	others, err := g.registry.Join(in.RoomID, userID)
	if err != nil {
		reason := ReasonInvalid
		if errors.Is(err, domain.ErrRoomFull) {
			reason = ReasonRoomFull
		}
		g.reject(userID, in.RoomID, reason)
		return
	}

	g.sendTo(userID, EventRoomUsers, roomUsersPayload{RoomID: in.RoomID, Users: others})
	g.broadcast(others, EventUserJoined, memberPayload{UserID: userID, RoomID: in.RoomID})
	metrics.SignalingMessagesTotal.WithLabelValues(EventJoinRoom, "handled").Inc()
	g.log.Debug().Str("user_id", userID).Str("room_id", in.RoomID).Int("others", len(others)).Msg("joined room")
}

func (g *Gateway) handleLeave(userID string, data json.RawMessage) {
	var in roomPayload
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		metrics.SignalingMessagesTotal.WithLabelValues(EventLeaveRoom, "rejected").Inc()
		return
	}

	remaining, ok := g.registry.Leave(in.RoomID, userID)
	if !ok {
		return
	}
	g.broadcast(remaining, EventUserLeft, memberPayload{UserID: userID, RoomID: in.RoomID})
	metrics.SignalingMessagesTotal.WithLabelValues(EventLeaveRoom, "handled").Inc()
}

// handleRelay forwards the payload to targetUserId with senderId added. Both
// users must share the named room. Offline targets are dropped silently.
func (g *Gateway) handleRelay(userID, event string, data json.RawMessage) {
	// Fields other than the routing keys are forwarded as raw bytes.
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		metrics.SignalingMessagesTotal.WithLabelValues(event, "rejected").Inc()
		return
	}
	var roomID, target string
	_ = json.Unmarshal(payload["roomId"], &roomID)
	_ = json.Unmarshal(payload["targetUserId"], &target)
	if roomID == "" || target == "" || target == userID {
		metrics.SignalingMessagesTotal.WithLabelValues(event, "rejected").Inc()
		return
	}
	if !g.registry.InRoom(roomID, userID, target) {
		g.log.Debug().Str("user_id", userID).Str("target", target).Str("room_id", roomID).Msg("relay outside shared room dropped")
		metrics.SignalingMessagesTotal.WithLabelValues(event, "dropped").Inc()
		return
	}

	sender, err := json.Marshal(userID)
	if err != nil {
		metrics.SignalingMessagesTotal.WithLabelValues(event, "rejected").Inc()
		return
	}
	payload["senderId"] = sender
	if !g.sendTo(target, event, payload) {
		metrics.SignalingMessagesTotal.WithLabelValues(event, "dropped").Inc()
		return
	}
	metrics.SignalingMessagesTotal.WithLabelValues(event, "relayed").Inc()
}

func (g *Gateway) reject(userID, roomID, reason string) {
	g.sendTo(userID, EventJoinRejected, rejectPayload{RoomID: roomID, Reason: reason})
	metrics.SignalingMessagesTotal.WithLabelValues(EventJoinRoom, "rejected").Inc()
}

func (g *Gateway) broadcast(userIDs []string, event string, data any) {
	for _, id := range userIDs {
		g.sendTo(id, event, data)
	}
}

// sendTo delivers to the live connection of userID and reports whether it was queued.
func (g *Gateway) sendTo(userID, event string, data any) bool {
	p, ok := g.registry.Lookup(userID)
	if !ok {
		return false
	}
	msg, err := encode(event, data)
	if err != nil {
		g.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return false
	}
	if err := p.Send(msg); err != nil {
		g.log.Warn().Err(err).Str("user_id", userID).Str("event", event).Msg("send failed")
		return false
	}
	return true
}
