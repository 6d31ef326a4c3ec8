package signaling

import "encoding/json"

// Client events.
const (
	EventJoinRoom     = "joinRoom"
	EventLeaveRoom    = "leaveRoom"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventIceCandidate = "iceCandidate"
	EventPing         = "ping"
)

// Server events.
const (
	EventRoomUsers    = "roomUsers"
	EventUserJoined   = "userJoined"
	EventUserLeft     = "userLeft"
	EventJoinRejected = "joinRejected"
	EventPong         = "pong"
)

// Reasons carried by joinRejected.
const (
	ReasonRoomFull  = "room_full"
	ReasonForbidden = "forbidden"
	ReasonInvalid   = "invalid_room"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type roomUsersPayload struct {
	RoomID string   `json:"roomId"`
	Users  []string `json:"users"`
}

type memberPayload struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId,omitempty"`
}

type rejectPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
