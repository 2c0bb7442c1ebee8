// Minimal Engine.IO v4 / Socket.IO v5 framing over a WebSocket transport
package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/portal/internal/models"
)

// PacketType is the kind of a decoded frame, combining the Engine.IO
// type and, for messages, the Socket.IO type.
type PacketType int

const (
	PacketOpen PacketType = iota
	PacketClose
	PacketPing
	PacketPong
	PacketNoop
	PacketConnect
	PacketDisconnect
	PacketEvent
	PacketAck
	PacketConnectError
)

func (t PacketType) String() string {
	switch t {
	case PacketOpen:
		return "open"
	case PacketClose:
		return "close"
	case PacketPing:
		return "ping"
	case PacketPong:
		return "pong"
	case PacketNoop:
		return "noop"
	case PacketConnect:
		return "connect"
	case PacketDisconnect:
		return "disconnect"
	case PacketEvent:
		return "event"
	case PacketAck:
		return "ack"
	case PacketConnectError:
		return "connect_error"
	default:
		return fmt.Sprintf("packet(%d)", int(t))
	}
}

// Wire frames sent by either side.
var (
	FramePing    = []byte("2")
	FramePong    = []byte("3")
	FrameConnect = []byte("40")
	FrameClose   = []byte("41")
)

// Packet is one decoded frame. Data holds the JSON that follows the type
// prefix, with any namespace and ack id stripped.
type Packet struct {
	Type PacketType
	Data []byte
}

// HandshakeInfo is the payload of the Engine.IO open packet.
type HandshakeInfo struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// ParsePacket decodes a single text frame.
func ParsePacket(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, fmt.Errorf("empty frame")
	}

	switch frame[0] {
	case '0':
		return Packet{Type: PacketOpen, Data: frame[1:]}, nil
	case '1':
		return Packet{Type: PacketClose}, nil
	case '2':
		return Packet{Type: PacketPing, Data: frame[1:]}, nil
	case '3':
		return Packet{Type: PacketPong, Data: frame[1:]}, nil
	case '6':
		return Packet{Type: PacketNoop}, nil
	case '4':
		return parseMessage(frame[1:])
	default:
		return Packet{}, fmt.Errorf("unknown engine.io packet type %q", frame[0])
	}
}

func parseMessage(msg []byte) (Packet, error) {
	if len(msg) == 0 {
		return Packet{}, fmt.Errorf("empty socket.io message")
	}

	var t PacketType
	switch msg[0] {
	case '0':
		t = PacketConnect
	case '1':
		t = PacketDisconnect
	case '2':
		t = PacketEvent
	case '3':
		t = PacketAck
	case '4':
		t = PacketConnectError
	default:
		return Packet{}, fmt.Errorf("unknown socket.io packet type %q", msg[0])
	}

	rest := msg[1:]
	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = nil
		}
	}
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}

	return Packet{Type: t, Data: rest}, nil
}

// DecodeEvent turns the data of an event packet, a JSON array whose first element is the event name, into an [models.Event].
func DecodeEvent(data []byte) (models.Event, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return models.Event{}, fmt.Errorf("invalid event payload: %w", err)
	}
	if len(parts) == 0 {
		return models.Event{}, fmt.Errorf("event payload has no name")
	}

	var ev models.Event
	if err := json.Unmarshal(parts[0], &ev.Name); err != nil {
		return models.Event{}, fmt.Errorf("invalid event name: %w", err)
	}
	if len(parts) > 1 {
		ev.Payload = parts[1]
	}
	return ev, nil
}

// EncodeEvent builds the 42["name",payload] frame for an event.
func EncodeEvent(name string, payload any) ([]byte, error) {
	args := []any{name}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return append([]byte("42"), data...), nil
}

// EncodeOpen builds the Engine.IO open frame sent by a server.
func EncodeOpen(info HandshakeInfo) ([]byte, error) {
	if info.Upgrades == nil {
		info.Upgrades = []string{}
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handshake: %w", err)
	}
	return append([]byte("0"), data...), nil
}

// EncodeConnect builds the Socket.IO connect acknowledgement for the default namespace.
func EncodeConnect(sid string) []byte {
	data, _ := json.Marshal(map[string]string{"sid": sid})
	return append([]byte("40"), data...)
}
