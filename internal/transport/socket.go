package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TymekV/simple-chat/pkg/log"
)

// Envelope frames every message on the wire: an event name plus a
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// NewEnvelope builds an envelope, marshaling v as the payload. A nil v
// produces an envelope with no payload (e.g. room.list).
func NewEnvelope(event string, v any) (Envelope, error) {
	env := Envelope{Event: event}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = data
	}
	return env, nil
}

// ErrSocketClosed is returned by Emit after the socket shuts down.
var ErrSocketClosed = errors.New("transport: socket closed")

// Socket is one established bidirectional channel.
type Socket interface {
	Emit(event string, v any) error
	Close() error
}

// Dialer opens sockets. Inbound envelopes are delivered to onEnvelope
// sequentially from a single reader goroutine; onClose fires exactly once
// when the connection drops or is closed.
type Dialer interface {
	Dial(ctx context.Context, url string, onEnvelope func(Envelope), onClose func(error)) (Socket, error)
}

// Keepalive defaults, applied to any Config field left at zero.
const (
	DefaultPingInterval   = 30 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultWriteWait      = 10 * time.Second
	DefaultMaxMessageSize = 65536
)

// Config holds websocket keepalive tuning. Zero fields fall back to the
// defaults above when the socket is dialed.
type Config struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = DefaultPongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = DefaultWriteWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	return c
}

// WSDialer dials real websocket connections.
type WSDialer struct {
	Config Config
}

func (d *WSDialer) Dial(ctx context.Context, url string, onEnvelope func(Envelope), onClose func(error)) (Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &wsSocket{
		conn:   conn,
		send:   make(chan Envelope, 256),
		done:   make(chan struct{}),
		config: d.Config.withDefaults(),
	}

	go s.writePump()
	go s.readPump(onEnvelope, onClose)

	return s, nil
}

type wsSocket struct {
	conn      *websocket.Conn
	send      chan Envelope
	done      chan struct{}
	closeOnce sync.Once
	config    Config
}

func (s *wsSocket) Emit(event string, v any) error {
	env, err := NewEnvelope(event, v)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSocketClosed
	case s.send <- env:
		return nil
	}
}

func (s *wsSocket) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return s.conn.Close()
}

func (s *wsSocket) readPump(onEnvelope func(Envelope), onClose func(error)) {
	defer func() {
		s.Close()
	}()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Debug().Err(err).Msg("websocket read failed")
			}
			onClose(err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		onEnvelope(env)
	}
}

func (s *wsSocket) writePump() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case env := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := s.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
