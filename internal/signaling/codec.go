package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Websocket subprotocols understood by the relay.
const (
	SubprotocolJSON    = "json"
	SubprotocolMsgpack = "msgpack"
)

// Codec converts frames to and from their wire representation.
type Codec interface {
	// Name is the websocket subprotocol the codec is negotiated with.
	Name() string

	// MessageType is the websocket frame type used for encoded frames.
	MessageType() int

	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)
}

var (
	JSONCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// CodecFor returns the codec for a negotiated subprotocol.
// Anything other than msgpack, including no subprotocol, means JSON.
func CodecFor(subprotocol string) Codec {
	if subprotocol == SubprotocolMsgpack {
		return MsgpackCodec
	}
	return JSONCodec
}

type jsonCodec struct{}

func (jsonCodec) Name() string     { return SubprotocolJSON }
func (jsonCodec) MessageType() int { return websocket.TextMessage }

// JSON frames are decoded field by field so that keys match exactly;
// encoding/json would otherwise accept "TYPE" for "type".
func (jsonCodec) Decode(data []byte) (*Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode json frame: %w", err)
	}

	msg := &Message{}
	for key, dst := range map[string]*string{
		"type":     &msg.Type,
		"roomCode": &msg.RoomCode,
		"error":    &msg.Error,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("decode json frame %s: %w", key, err)
		}
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}

	if content, ok := fields["content"]; ok {
		msg.Content = content
	}
	return msg, nil
}

func (jsonCodec) Encode(msg *Message) ([]byte, error) {
	out := *msg
	if raw, ok := msg.Content.(msgpack.RawMessage); ok {
		var v any
		if err := msgpack.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("convert msgpack content: %w", err)
		}
		out.Content = v
	}

	// Content goes out as the peer sent it, without HTML escaping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out.wire()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string     { return SubprotocolMsgpack }
func (msgpackCodec) MessageType() int { return websocket.BinaryMessage }

type msgpackFrame struct {
	Type     string             `msgpack:"type"`
	RoomCode string             `msgpack:"roomCode"`
	Content  msgpack.RawMessage `msgpack:"content"`
	Error    string             `msgpack:"error"`
}

func (msgpackCodec) Decode(data []byte) (*Message, error) {
	var f msgpackFrame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode msgpack frame: %w", err)
	}
	if f.Type == "" {
		return nil, ErrMissingType
	}

	msg := &Message{Type: f.Type, RoomCode: f.RoomCode, Error: f.Error}
	if f.Content != nil {
		msg.Content = f.Content
	}
	return msg, nil
}

func (msgpackCodec) Encode(msg *Message) ([]byte, error) {
	out := *msg
	if raw, ok := msg.Content.(json.RawMessage); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("convert json content: %w", err)
		}
		out.Content = v
	}
	return msgpack.Marshal(out.wire())
}
