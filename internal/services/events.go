// Push channel client for execution notifications
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
	writeWait           = 10 * time.Second
)

// EventListener subscribes to the portal's Socket.IO push channel over a WebSocket.
//
// The listener does not reconnect; callers decide whether to call [EventListener.Listen] again.
type EventListener struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewEventListener creates a listener for the endpoint at url
// (e.g. ws://host:5000/socket.io/?EIO=4&transport=websocket).
func NewEventListener(url string, logger *log.Logger) *EventListener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &EventListener{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logger.With("component", "events"),
	}
}

// Listen connects, performs the namespace handshake, and calls handle for every event until ctx is
// cancelled or the server closes the channel. handle runs on the listener's goroutine.
//
// A clean shutdown through ctx returns nil.
func (l *EventListener) Listen(ctx context.Context, handle func(models.Event)) error {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: dial %s: status %d: %v", shared.ErrServiceUnavailable, l.url, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: dial %s: %v", shared.ErrServiceUnavailable, l.url, err)
	}

	var writeMu sync.Mutex
	write := func(frame []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, frame)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			write(FrameClose)
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	deadline := defaultPingInterval + defaultPingTimeout
	conn.SetReadDeadline(time.Now().Add(deadline))

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("%w: closed by server", shared.ErrEventChannel)
			}
			return fmt.Errorf("%w: %v", shared.ErrEventChannel, err)
		}

		pkt, err := ParsePacket(frame)
		if err != nil {
			l.logger.Warn("skipping malformed frame", "frame", string(frame), "error", err)
			continue
		}

		switch pkt.Type {
		case PacketOpen:
			if info, err := decodeHandshake(pkt.Data); err == nil && info.PingInterval > 0 {
				deadline = time.Duration(info.PingInterval+info.PingTimeout) * time.Millisecond
			}
			if err := write(FrameConnect); err != nil {
				return fmt.Errorf("%w: connect: %v", shared.ErrEventChannel, err)
			}
		case PacketPing:
			if err := write(FramePong); err != nil {
				return fmt.Errorf("%w: pong: %v", shared.ErrEventChannel, err)
			}
		case PacketConnect:
			l.logger.Debug("connected to push channel", "url", l.url)
		case PacketConnectError:
			return fmt.Errorf("%w: connect refused: %s", shared.ErrEventChannel, string(pkt.Data))
		case PacketEvent:
			ev, err := DecodeEvent(pkt.Data)
			if err != nil {
				l.logger.Warn("skipping malformed event", "error", err)
				break
			}
			handle(ev)
		case PacketClose, PacketDisconnect:
			return fmt.Errorf("%w: closed by server", shared.ErrEventChannel)
		}

		conn.SetReadDeadline(time.Now().Add(deadline))
	}
}

// Stream runs [EventListener.Listen] on its own goroutine and delivers events on the returned
// channel, which is closed when listening stops. A non-nil terminal error is logged.
func (l *EventListener) Stream(ctx context.Context) <-chan models.Event {
	out := make(chan models.Event, 16)
	go func() {
		defer close(out)
		err := l.Listen(ctx, func(ev models.Event) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("push channel stopped", "error", err)
		}
	}()
	return out
}

func decodeHandshake(data []byte) (HandshakeInfo, error) {
	var info HandshakeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return HandshakeInfo{}, err
	}
	return info, nil
}
