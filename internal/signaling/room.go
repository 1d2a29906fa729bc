package signaling

import "github.com/google/uuid"

// MaxParticipants is the number of peers a room pairs.
const MaxParticipants = 2

// Room represents a single room where two peers can connect.
// It is only touched by the hub goroutine.
type Room struct {
	// Code is the client-supplied room identifier.
	Code string

	// participants in join order.
	participants []*Client
}

// RoomInfo is a read-only view of a room.
type RoomInfo struct {
	Code         string `json:"roomCode"`
	Participants int    `json:"participants"`
}

func newRoom(code string) *Room {
	return &Room{
		Code:         code,
		participants: make([]*Client, 0, MaxParticipants),
	}
}

func (r *Room) full() bool {
	return len(r.participants) >= MaxParticipants
}

func (r *Room) empty() bool {
	return len(r.participants) == 0
}

func (r *Room) add(c *Client) {
	r.participants = append(r.participants, c)
}

// remove drops the participant with the given id and reports whether it was present.
func (r *Room) remove(id uuid.UUID) bool {
	for i, p := range r.participants {
		if p.ID == id {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return true
		}
	}
	return false
}

// others returns every participant except id.
func (r *Room) others(id uuid.UUID) []*Client {
	out := make([]*Client, 0, len(r.participants))
	for _, p := range r.participants {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) info() RoomInfo {
	return RoomInfo{Code: r.Code, Participants: len(r.participants)}
}
