package signaling

import (
	"sort"
	"sync"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

// DefaultMaxRoomSize keeps rooms to the two parties of a call.
const DefaultMaxRoomSize = 2

// Peer is a connection handle able to receive encoded server messages.
// Send must not block.
type Peer interface {
	Send(msg []byte) error
	Close()
}

// RoomExit describes a room a user was removed from and who is still in it.
type RoomExit struct {
	RoomID    string
	Remaining []string
}

// RoomSnapshot is a point-in-time view of one room.
type RoomSnapshot struct {
	RoomID  string   `json:"room_id"`
	Members []string `json:"members"`
}

// Registry tracks online users and room membership for one process. All
// state sits behind a single mutex; operations are short and never block on I/O.
type Registry struct {
	mu          sync.Mutex
	maxRoomSize int
	presence    map[string]Peer
	rooms       map[string]map[string]struct{}
	memberships map[string]map[string]struct{}
}

// NewRegistry returns an empty registry. maxRoomSize <= 0 means DefaultMaxRoomSize.
func NewRegistry(maxRoomSize int) *Registry {
	if maxRoomSize <= 0 {
		maxRoomSize = DefaultMaxRoomSize
	}
	return &Registry{
		maxRoomSize: maxRoomSize,
		presence:    map[string]Peer{},
		rooms:       map[string]map[string]struct{}{},
		memberships: map[string]map[string]struct{}{},
	}
}

// Register makes p the live connection of userID and returns the connection
// it replaced, if any.
func (r *Registry) Register(userID string, p Peer) Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.presence[userID]
	r.presence[userID] = p
	metrics.SignalingConnections.Set(float64(len(r.presence)))
	if prev == p {
		return nil
	}
	return prev
}

// Unregister removes userID if p is still its live connection, then drops the
// user from every room. It reports false when p had already been replaced, in
// which case nothing changes.
func (r *Registry) Unregister(userID string, p Peer) ([]RoomExit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.presence[userID]; !ok || cur != p {
		return nil, false
	}
	delete(r.presence, userID)

	var exits []RoomExit
	for roomID := range r.memberships[userID] {
		exits = append(exits, RoomExit{RoomID: roomID, Remaining: r.removeLocked(roomID, userID)})
	}
	delete(r.memberships, userID)

	metrics.SignalingConnections.Set(float64(len(r.presence)))
	metrics.SignalingRooms.Set(float64(len(r.rooms)))
	sort.Slice(exits, func(i, j int) bool { return exits[i].RoomID < exits[j].RoomID })
	return exits, true
}

// Join adds userID to roomID, creating the room if needed, and returns the
// other members. Rejoining a room is allowed; a new member beyond the room
// capacity gets domain.ErrRoomFull.
func (r *Registry) Join(roomID, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = map[string]struct{}{}
		r.rooms[roomID] = room
	}
	if _, member := room[userID]; !member && len(room) >= r.maxRoomSize {
		return nil, domain.ErrRoomFull
	}

	room[userID] = struct{}{}
	rooms, ok := r.memberships[userID]
	if !ok {
		rooms = map[string]struct{}{}
		r.memberships[userID] = rooms
	}
	rooms[roomID] = struct{}{}

	metrics.SignalingRooms.Set(float64(len(r.rooms)))
	return othersLocked(room, userID), nil
}

// Leave removes userID from roomID and returns the remaining members. The
// room is deleted once empty. The bool is false when userID was not a member.
func (r *Registry) Leave(roomID, userID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, member := r.rooms[roomID][userID]; !member {
		return nil, false
	}
	remaining := r.removeLocked(roomID, userID)
	if rooms := r.memberships[userID]; rooms != nil {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.memberships, userID)
		}
	}
	metrics.SignalingRooms.Set(float64(len(r.rooms)))
	return remaining, true
}

// Lookup returns the live connection of userID.
func (r *Registry) Lookup(userID string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.presence[userID]
	return p, ok
}

// InRoom reports whether every user is a member of roomID.
func (r *Registry) InRoom(roomID string, userIDs ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	for _, id := range userIDs {
		if _, member := room[id]; !member {
			return false
		}
	}
	return true
}

// Members returns the sorted member IDs of roomID.
func (r *Registry) Members(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return othersLocked(r.rooms[roomID], "")
}

// Online reports the number of connected users.
func (r *Registry) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presence)
}

// Snapshot lists all rooms sorted by ID.
func (r *Registry) Snapshot() []RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomSnapshot, 0, len(r.rooms))
	for roomID, room := range r.rooms {
		out = append(out, RoomSnapshot{RoomID: roomID, Members: othersLocked(room, "")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// removeLocked drops userID from roomID, deleting the room when it empties.
func (r *Registry) removeLocked(roomID, userID string) []string {
	room := r.rooms[roomID]
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
		return nil
	}
	return othersLocked(room, userID)
}

func othersLocked(room map[string]struct{}, exclude string) []string {
	out := make([]string, 0, len(room))
	for id := range room {
		if id != exclude {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
