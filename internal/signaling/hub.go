package signaling

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Hub is the central brain of the relay.
// It manages all active rooms and clients.
//
// Every mutation happens on the goroutine running Run; the exported
// methods only submit requests to it. This serializes join, relay and
// leave across all connections.
type Hub struct {
	// rooms maps room codes to Room instances.
	rooms map[string]*Room

	// clients holds every registered connection, in a room or not.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	join       chan *joinRequest
	relay      chan *relayRequest
	query      chan chan []RoomInfo

	// done is closed when Run returns.
	done chan struct{}

	logger *slog.Logger
}

type joinRequest struct {
	client   *Client
	roomCode string
	reply    chan joinResult
}

type joinResult struct {
	roomCode string
	err      error
}

type relayRequest struct {
	from    *Client
	content any
}

// NewHub creates a new Hub instance. Run must be started before use.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan *joinRequest),
		relay:      make(chan *relayRequest),
		query:      make(chan chan []RoomInfo),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "hub"),
	}
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state (rooms, clients).
// It returns when ctx is cancelled, closing every client's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			h.logger.Debug("client registered", "client", client.ID)

		case client := <-h.unregister:
			h.handleLeave(client)

		case req := <-h.join:
			code, err := h.handleJoin(req.client, req.roomCode)
			req.reply <- joinResult{roomCode: code, err: err}

		case req := <-h.relay:
			h.handleRelay(req.from, req.content)

		case reply := <-h.query:
			reply <- h.snapshot()
		}
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register tracks a freshly accepted connection. It reports false if the
// hub has stopped, in which case the caller should drop the connection.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Join adds c to the room named roomCode, creating the room if needed,
// and returns the room code. The joining client is sent a joined
// acknowledgment; when the room becomes full both participants are sent
// connected. A join to a full room, or by a client already in a room, is
// rejected with an error frame and leaves all membership unchanged.
func (h *Hub) Join(c *Client, roomCode string) (string, error) {
	req := &joinRequest{client: c, roomCode: roomCode, reply: make(chan joinResult, 1)}
	select {
	case h.join <- req:
	case <-h.done:
		return "", ErrHubStopped
	}

	res := <-req.reply
	return res.roomCode, res.err
}

// Relay forwards content to every other participant in from's room.
// It is a no-op when from is not in a room.
func (h *Hub) Relay(from *Client, content any) {
	select {
	case h.relay <- &relayRequest{from: from, content: content}:
	case <-h.done:
	}
}

// Leave removes c from its room and closes its send queue. The remaining
// participant, if any, is notified; an emptied room is deleted.
// Leaving more than once is a no-op.
func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Rooms returns a snapshot of the live rooms ordered by code.
func (h *Hub) Rooms() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	select {
	case h.query <- reply:
	case <-h.done:
		return nil
	}
	return <-reply
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	return len(h.Rooms())
}

func (h *Hub) handleJoin(c *Client, roomCode string) (string, error) {
	if c.closed {
		return "", ErrClientClosed
	}
	h.clients[c.ID] = c

	if c.room != nil {
		h.logger.Info("join rejected", "client", c.ID, "room", roomCode, "current", c.room.Code, "error", ErrAlreadyInRoom)
		c.enqueue(errorMessage(roomCode, ErrAlreadyInRoom))
		return "", ErrAlreadyInRoom
	}

	room, ok := h.rooms[roomCode]
	if ok && room.full() {
		h.logger.Info("join rejected", "client", c.ID, "room", roomCode, "error", ErrRoomFull)
		c.enqueue(errorMessage(roomCode, ErrRoomFull))
		return "", ErrRoomFull
	}
	if !ok {
		room = newRoom(roomCode)
		h.rooms[roomCode] = room
		h.logger.Info("room created", "room", roomCode)
	}

	room.add(c)
	c.room = room
	h.logger.Info("client joined room", "client", c.ID, "room", roomCode, "participants", len(room.participants))

	c.enqueue(joinedMessage(roomCode))

	// Only the append that fills the room announces the pairing.
	if room.full() {
		for _, p := range room.participants {
			p.enqueue(connectedMessage)
		}
		h.logger.Info("room paired", "room", roomCode)
	}

	return roomCode, nil
}

func (h *Hub) handleRelay(from *Client, content any) {
	room := from.room
	if room == nil {
		h.logger.Debug("relay from client outside any room", "client", from.ID)
		return
	}

	for _, p := range room.others(from.ID) {
		if !p.enqueue(&Message{Type: TypeMessage, Content: content}) {
			h.logger.Debug("relay skipped participant", "room", room.Code, "client", p.ID)
		}
	}
}

func (h *Hub) handleLeave(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	delete(h.clients, c.ID)
	close(c.send)

	room := c.room
	if room == nil {
		h.logger.Debug("client left without a room", "client", c.ID)
		return
	}
	c.room = nil

	if !room.remove(c.ID) {
		return
	}

	if room.empty() {
		delete(h.rooms, room.Code)
		h.logger.Info("room deleted", "room", room.Code)
		return
	}

	h.logger.Info("peer left room", "client", c.ID, "room", room.Code)
	for _, p := range room.participants {
		p.enqueue(disconnectedMessage)
	}
}

func (h *Hub) snapshot() []RoomInfo {
	out := make([]RoomInfo, 0, len(h.rooms))
	for _, room := range h.rooms {
		out = append(out, room.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (h *Hub) shutdown() {
	close(h.done)
	for id, c := range h.clients {
		if !c.closed {
			c.closed = true
			close(c.send)
		}
		delete(h.clients, id)
	}
	h.rooms = make(map[string]*Room)
	h.logger.Info("hub stopped")
}
