package peer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/pairrelay/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Client is one participant's connection to a relay server.
type Client struct {
	conn     *websocket.Conn
	codec    signaling.Codec
	incoming chan *signaling.Message
	outgoing chan []byte
	done     chan struct{}

	closeOnce sync.Once
}

// WebSocketURL turns a relay base URL (http, https, ws or wss) into its
// websocket endpoint.
func WebSocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid relay URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid relay URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Dial connects to the relay at base, negotiating codec as the subprotocol.
func Dial(ctx context.Context, base string, codec signaling.Codec) (*Client, error) {
	wsURL, err := WebSocketURL(base)
	if err != nil {
		return nil, err
	}

	dialer := *websocket.DefaultDialer
	dialer.Subprotocols = []string{codec.Name()}
	dialer.NetDialContext = NewResolver().DialContext

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	c := &Client{
		conn:     conn,
		codec:    signaling.CodecFor(conn.Subprotocol()),
		incoming: make(chan *signaling.Message, 16),
		outgoing: make(chan []byte, 16),
		done:     make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	return c, nil
}

// readPump reads frames from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			continue
		}

		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes frames to the WebSocket connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case data := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.MessageType(), data); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes and queues a frame for the server.
// It returns false if the frame cannot be encoded or the client is closed.
func (c *Client) Send(msg *signaling.Message) bool {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return false
	}
	return c.SendRaw(data)
}

// SendRaw queues data as-is, bypassing the codec. Useful for probing
// the server with malformed frames.
func (c *Client) SendRaw(data []byte) bool {
	select {
	case c.outgoing <- data:
		return true
	case <-c.done:
		return false
	}
}

// Join asks the server to put this client in roomCode.
func (c *Client) Join(roomCode string) bool {
	return c.Send(&signaling.Message{Type: signaling.TypeJoin, RoomCode: roomCode})
}

// SendContent relays content to the other participant.
func (c *Client) SendContent(content any) bool {
	return c.Send(&signaling.Message{Type: signaling.TypeMessage, Content: content})
}

// Incoming returns the channel of frames received from the server.
// It is closed when the connection ends.
func (c *Client) Incoming() <-chan *signaling.Message {
	return c.incoming
}

// Codec is the codec negotiated with the server.
func (c *Client) Codec() signaling.Codec {
	return c.codec
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
