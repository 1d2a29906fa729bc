package signaling

import "errors"

var (
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("already joined a room")
	ErrClientClosed  = errors.New("client is closed")
	ErrHubStopped    = errors.New("hub stopped")
	ErrMissingType   = errors.New("frame has no type")
)
