package signaling

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) frames.
//
// Content is opaque to the relay. Frames decoded from JSON carry a
// json.RawMessage, frames decoded from MessagePack a msgpack.RawMessage,
// so a payload relayed between two peers using the same codec is
// forwarded byte for byte.
type Message struct {
	Type     string `json:"type" msgpack:"type"`
	RoomCode string `json:"roomCode,omitempty" msgpack:"roomCode,omitempty"`
	Content  any    `json:"content,omitempty" msgpack:"content,omitempty"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Message type constants.
const (
	// client -> server
	TypeJoin = "join"

	// server -> client
	TypeJoined       = "joined"
	TypeConnected    = "connected"
	TypeDisconnected = "disconnected"
	TypeError        = "error"

	// both directions
	TypeMessage = "message"
)

// roomFrame is the wire form of frames that name a room. The room code is
// always present, even when it is empty.
type roomFrame struct {
	Type     string `json:"type" msgpack:"type"`
	RoomCode string `json:"roomCode" msgpack:"roomCode"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// wire returns the value a codec should encode for m.
func (m *Message) wire() any {
	switch m.Type {
	case TypeJoin, TypeJoined, TypeError:
		return &roomFrame{Type: m.Type, RoomCode: m.RoomCode, Error: m.Error}
	}
	return m
}

func joinedMessage(roomCode string) *Message {
	return &Message{Type: TypeJoined, RoomCode: roomCode}
}

func errorMessage(roomCode string, err error) *Message {
	return &Message{Type: TypeError, RoomCode: roomCode, Error: err.Error()}
}

var (
	connectedMessage    = &Message{Type: TypeConnected}
	disconnectedMessage = &Message{Type: TypeDisconnected}
)
