package services

import (
	"testing"
)

func TestParsePacket(t *testing.T) {
	tc := []struct {
		name     string
		frame    string
		wantType PacketType
		wantData string
		wantErr  bool
	}{
		{name: "open", frame: `0{"sid":"abc","pingInterval":25000}`, wantType: PacketOpen, wantData: `{"sid":"abc","pingInterval":25000}`},
		{name: "close", frame: "1", wantType: PacketClose},
		{name: "ping", frame: "2", wantType: PacketPing},
		{name: "pong", frame: "3", wantType: PacketPong},
		{name: "noop", frame: "6", wantType: PacketNoop},
		{name: "connect ack", frame: `40{"sid":"xyz"}`, wantType: PacketConnect, wantData: `{"sid":"xyz"}`},
		{name: "disconnect", frame: "41", wantType: PacketDisconnect},
		{name: "event", frame: `42["execution_completed",{"execution_id":3}]`, wantType: PacketEvent, wantData: `["execution_completed",{"execution_id":3}]`},
		{name: "event with namespace", frame: `42/admin,["x"]`, wantType: PacketEvent, wantData: `["x"]`},
		{name: "event with ack id", frame: `4217["x"]`, wantType: PacketEvent, wantData: `["x"]`},
		{name: "connect error", frame: `44{"message":"nope"}`, wantType: PacketConnectError, wantData: `{"message":"nope"}`},
		{name: "empty", frame: "", wantErr: true},
		{name: "unknown engine type", frame: "9", wantErr: true},
		{name: "empty message", frame: "4", wantErr: true},
		{name: "unknown socket type", frame: "47", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := ParsePacket([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", pkt)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pkt.Type != tt.wantType {
				t.Errorf("type = %v, want %v", pkt.Type, tt.wantType)
			}
			if string(pkt.Data) != tt.wantData {
				t.Errorf("data = %q, want %q", pkt.Data, tt.wantData)
			}
		})
	}
}

func TestEvents(t *testing.T) {
	t.Run("Encode Then Decode", func(t *testing.T) {
		frame, err := EncodeEvent("execution_failed", map[string]int{"execution_id": 9})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(frame) != `42["execution_failed",{"execution_id":9}]` {
			t.Errorf("unexpected frame %s", frame)
		}

		pkt, err := ParsePacket(frame)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ev, err := DecodeEvent(pkt.Data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Name != "execution_failed" || string(ev.Payload) != `{"execution_id":9}` {
			t.Errorf("unexpected event %+v", ev)
		}
	})

	t.Run("Event Without Payload", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`["hello"]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Name != "hello" || ev.Payload != nil {
			t.Errorf("unexpected event %+v", ev)
		}
	})

	t.Run("Malformed Events", func(t *testing.T) {
		for _, data := range []string{`{}`, `[]`, `[1]`, `not json`} {
			if _, err := DecodeEvent([]byte(data)); err == nil {
				t.Errorf("expected error for %s", data)
			}
		}
	})

	t.Run("Open And Connect Frames", func(t *testing.T) {
		frame, err := EncodeOpen(HandshakeInfo{SID: "s1", PingInterval: 100, PingTimeout: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pkt, _ := ParsePacket(frame)
		info, err := decodeHandshake(pkt.Data)
		if err != nil || info.SID != "s1" || info.PingInterval != 100 {
			t.Errorf("unexpected handshake %+v (%v)", info, err)
		}

		pkt, _ = ParsePacket(EncodeConnect("s1"))
		if pkt.Type != PacketConnect {
			t.Errorf("expected connect packet, got %v", pkt.Type)
		}
	})
}
