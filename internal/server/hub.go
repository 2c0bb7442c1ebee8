package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/portal/internal/services"
	"github.com/desertthunder/portal/internal/shared"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
	writeWait           = 10 * time.Second
	maxPayload          = 1_000_000
)

// Broadcaster pushes a named event to every connected client.
type Broadcaster interface {
	Broadcast(name string, payload any)
}

type hubClient struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	connected bool
}

func (c *hubClient) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Hub is a minimal Socket.IO server on the default namespace, WebSocket transport only.
// Clients receive events after they send the namespace connect packet.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	pingTimeout  time.Duration
	logger       *log.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

// NewHub creates a hub that accepts any origin.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: defaultPingInterval,
		pingTimeout:  defaultPingTimeout,
		logger:       logger.With("component", "hub"),
		clients:      make(map[*hubClient]struct{}),
	}
}

// SetPingInterval changes how often the hub pings clients.
func (h *Hub) SetPingInterval(interval, timeout time.Duration) {
	h.pingInterval, h.pingTimeout = interval, timeout
}

// Routes returns the Socket.IO endpoint.
func (h *Hub) Routes() []string {
	return []string{"/socket.io/"}
}

// ServeHTTP upgrades the request and runs the Engine.IO session until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("transport") != "websocket" {
		writeError(w, http.StatusBadRequest, "Only the websocket transport is supported")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &hubClient{conn: conn}
	open, err := services.EncodeOpen(services.HandshakeInfo{
		SID:          shared.GenerateID(),
		PingInterval: int(h.pingInterval / time.Millisecond),
		PingTimeout:  int(h.pingTimeout / time.Millisecond),
		MaxPayload:   maxPayload,
	})
	if err != nil || c.write(open) != nil {
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	defer h.remove(c)

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(c, done)

	h.logger.Debug("client connected", "remote", r.RemoteAddr)
	h.readLoop(c)
	h.logger.Debug("client disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) keepalive(c *hubClient, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(services.FramePing); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *hubClient) {
	deadline := h.pingInterval + h.pingTimeout
	c.conn.SetReadDeadline(time.Now().Add(deadline))

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(deadline))

		pkt, err := services.ParsePacket(frame)
		if err != nil {
			h.logger.Warn("skipping malformed frame", "error", err)
			continue
		}

		switch pkt.Type {
		case services.PacketConnect:
			if err := c.write(services.EncodeConnect(shared.GenerateID())); err != nil {
				return
			}
			h.mu.Lock()
			c.connected = true
			h.mu.Unlock()
		case services.PacketPing:
			if err := c.write(services.FramePong); err != nil {
				return
			}
		case services.PacketClose, services.PacketDisconnect:
			return
		}
	}
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Broadcast sends 42["name",payload] to every connected client. Clients that fail the write are dropped.
func (h *Hub) Broadcast(name string, payload any) {
	frame, err := services.EncodeEvent(name, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "name", name, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		if c.connected {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(frame); err != nil {
			h.logger.Warn("dropping client", "error", err)
			c.conn.Close()
			h.remove(c)
		}
	}
	h.logger.Debug("broadcast", "event", name, "clients", len(targets))
}

// Connected returns how many clients have joined the namespace.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.connected {
			n++
		}
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.write(services.FrameClose)
		c.conn.Close()
		delete(h.clients, c)
	}
}
