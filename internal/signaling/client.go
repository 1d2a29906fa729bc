package signaling

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultSendBuffer     = 256
	defaultMaxMessageSize = 64 * 1024
)

// ClientOptions tunes a single connection.
type ClientOptions struct {
	// KeepAlive is the ping period. Zero disables pings and read deadlines.
	KeepAlive time.Duration

	// SendBuffer is the outbound queue length. Frames that do not fit are dropped.
	SendBuffer int

	// MaxMessageSize is the largest inbound frame accepted from the peer.
	MaxMessageSize int64
}

// Client is a wrapper for a single websocket connection (a participant).
type Client struct {
	// ID identifies the participant inside the hub.
	ID uuid.UUID

	hub   *Hub
	conn  *websocket.Conn
	codec Codec

	// send is a buffered channel for all outbound messages.
	// Only the hub writes to it; WritePump drains it to the websocket.
	send chan *Message

	// writable is cleared once WritePump has exited.
	writable atomic.Bool

	// room and closed are owned by the hub goroutine.
	room   *Room
	closed bool

	keepAlive      time.Duration
	maxMessageSize int64

	logger *slog.Logger
}

// NewClient wraps conn. The codec follows the negotiated subprotocol.
func NewClient(hub *Hub, conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}

	c := newClient(hub, opts.SendBuffer)
	c.conn = conn
	c.codec = CodecFor(conn.Subprotocol())
	c.keepAlive = opts.KeepAlive
	c.maxMessageSize = opts.MaxMessageSize
	c.logger = c.logger.With("remote", conn.RemoteAddr().String())
	return c
}

func newClient(hub *Hub, sendBuffer int) *Client {
	id := uuid.New()
	c := &Client{
		ID:     id,
		hub:    hub,
		codec:  JSONCodec,
		send:   make(chan *Message, sendBuffer),
		logger: slog.Default().With("client", id.String()),
	}
	c.writable.Store(true)
	return c
}

// enqueue hands msg to the write pump without blocking. It reports
// whether the frame was queued; closed, dead or backed up clients are
// skipped.
func (c *Client) enqueue(msg *Message) bool {
	if c.closed || !c.writable.Load() {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("send buffer full, dropping frame", "type", msg.Type)
		return false
	}
}

// HandleFrame decodes one inbound frame and dispatches it to the hub.
// Malformed frames are logged and ignored.
func (c *Client) HandleFrame(data []byte) {
	msg, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Warn("ignoring malformed frame", "error", err)
		return
	}

	switch msg.Type {
	case TypeJoin:
		if _, err := c.hub.Join(c, msg.RoomCode); err != nil {
			c.logger.Info("join rejected", "room", msg.RoomCode, "error", err)
		}

	case TypeMessage:
		c.hub.Relay(c, msg.Content)

	default:
		c.logger.Debug("ignoring unknown frame type", "type", msg.Type)
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	// When this function exits (e.g., connection closes), leave the room
	defer func() {
		c.hub.Leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	if c.keepAlive > 0 {
		pongWait := c.keepAlive * 10 / 9
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Info("connection closed unexpectedly", "error", err)
			}
			return
		}

		c.HandleFrame(data)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	var ping <-chan time.Time
	if c.keepAlive > 0 {
		ticker := time.NewTicker(c.keepAlive)
		defer ticker.Stop()
		ping = ticker.C
	}

	defer func() {
		c.writable.Store(false)
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := c.codec.Encode(msg)
			if err != nil {
				c.logger.Warn("dropping unencodable frame", "type", msg.Type, "error", err)
				continue
			}

			if err := c.conn.WriteMessage(c.codec.MessageType(), data); err != nil {
				c.logger.Debug("write failed", "error", err)
				return
			}

		case <-ping:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
