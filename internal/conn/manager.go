package conn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/transport"
	"github.com/TymekV/simple-chat/pkg/log"
)

// Status is the connection lifecycle state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// ErrNotConnected is returned by Emit while no handshaken channel exists.
var ErrNotConnected = errors.New("conn: not connected")

// Handlers receive lifecycle and inbound-traffic notifications. They are
// invoked from the socket's reader goroutine; implementations must not
// call back into the Manager synchronously from OnDisconnect.
type Handlers struct {
	OnConnect    func(sessionID string)
	OnDisconnect func(err error)
	OnEnvelope   func(env transport.Envelope)
}

// Options configures the Manager. ReconnectAttempts bounds the automatic
// retry loop; ReconnectDelay is the fixed pause between attempts.
type Options struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Dialer            transport.Dialer
}

// Manager owns one transport connection: it dials, tracks status and the
// transport-assigned session id, and retries dropped connections up to the
// configured attempt count. The session id is NOT stable across reconnects;
// callers needing a durable "is this mine" check should go through
// identity.Identity instead.
type Manager struct {
	mu       sync.RWMutex
	opts     Options
	handlers Handlers

	status    Status
	sessionID string
	sock      transport.Socket

	// gen invalidates callbacks and retry loops from torn-down connections.
	gen    int
	closed bool
}

func NewManager(opts Options, handlers Handlers) *Manager {
	return &Manager{
		opts:     opts,
		handlers: handlers,
		status:   StatusDisconnected,
	}
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Connected reports whether the handshake has completed.
func (m *Manager) Connected() bool {
	return m.Status() == StatusConnected
}

// SessionID returns the transport-assigned session id, or "" while
// disconnected.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Connect starts establishing the channel. It is idempotent: a no-op when
// a connection attempt is already in flight or established. Callers never
// wait on completion; they observe Status.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.status != StatusDisconnected {
		m.mu.Unlock()
		return
	}
	m.closed = false
	m.status = StatusConnecting
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	go m.dialLoop(gen, false)
}

// Disconnect tears the channel down and clears the derived identity.
// No automatic retry follows; Connect or Reconnect must be called to
// re-establish.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed && m.sock == nil && m.status == StatusDisconnected {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.gen++
	sock := m.sock
	m.sock = nil
	m.sessionID = ""
	wasUp := m.status != StatusDisconnected
	m.status = StatusDisconnected
	m.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	if wasUp && m.handlers.OnDisconnect != nil {
		m.handlers.OnDisconnect(nil)
	}
}

// Reconnect tears down any current channel and dials again.
func (m *Manager) Reconnect() {
	m.Disconnect()
	m.Connect()
}

// Emit sends one event over the established channel. It fails with
// ErrNotConnected before the handshake completes or after a drop.
func (m *Manager) Emit(event string, v any) error {
	m.mu.RLock()
	sock := m.sock
	status := m.status
	m.mu.RUnlock()

	if status != StatusConnected || sock == nil {
		return ErrNotConnected
	}
	return sock.Emit(event, v)
}

// dialLoop performs the initial dial and up to ReconnectAttempts retries
// with a fixed delay. delayFirst is set when recovering from a drop, so
// the first retry does not hammer the server.
func (m *Manager) dialLoop(gen int, delayFirst bool) {
	l := log.L()

	for attempt := 0; attempt <= m.opts.ReconnectAttempts; attempt++ {
		if attempt > 0 || delayFirst {
			time.Sleep(m.opts.ReconnectDelay)
		}
		if m.stale(gen) {
			return
		}

		sock, err := m.opts.Dialer.Dial(context.Background(), m.opts.URL,
			func(env transport.Envelope) { m.handleEnvelope(gen, env) },
			func(err error) { m.handleClose(gen, err) },
		)
		if err == nil {
			m.mu.Lock()
			if gen != m.gen || m.closed {
				m.mu.Unlock()
				sock.Close()
				return
			}
			m.sock = sock
			m.mu.Unlock()
			return
		}

		l.Warn().Err(err).Int(log.FieldAttempt, attempt).Str("url", m.opts.URL).
			Msg("connect attempt failed")
	}

	// Attempts exhausted: give up until a manual Reconnect.
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.status = StatusDisconnected
	m.mu.Unlock()

	l.Error().Int("attempts", m.opts.ReconnectAttempts+1).Msg("connection attempts exhausted")
	if m.handlers.OnDisconnect != nil {
		m.handlers.OnDisconnect(ErrNotConnected)
	}
}

func (m *Manager) handleEnvelope(gen int, env transport.Envelope) {
	if m.stale(gen) {
		return
	}

	// The handshake frame carries the session id assigned to this
	// connection; only after it arrives is the channel usable.
	if env.Event == domain.EvtConnectAck {
		var ack domain.ConnectAck
		if err := env.Decode(&ack); err != nil {
			l := log.L()
			l.Error().Err(err).Msg("malformed connect ack")
			return
		}

		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.sessionID = ack.SessionID
		m.status = StatusConnected
		m.mu.Unlock()

		l := log.L()
		l.Info().Str(log.FieldSessionID, ack.SessionID).Msg("connected")
		if m.handlers.OnConnect != nil {
			m.handlers.OnConnect(ack.SessionID)
		}
		return
	}

	if m.handlers.OnEnvelope != nil {
		m.handlers.OnEnvelope(env)
	}
}

// handleClose runs when the socket drops. Unless the teardown was manual,
// it flips to connecting and starts the bounded retry loop.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.sock = nil
	m.sessionID = ""
	wasConnected := m.status == StatusConnected
	if m.closed {
		m.status = StatusDisconnected
		m.mu.Unlock()
		return
	}
	m.status = StatusConnecting
	m.gen++
	next := m.gen
	m.mu.Unlock()

	l := log.L()
	l.Warn().Err(err).Msg("connection dropped")
	if wasConnected && m.handlers.OnDisconnect != nil {
		m.handlers.OnDisconnect(err)
	}

	go m.dialLoop(next, true)
}

// stale reports whether gen belongs to a superseded connection. Must not
// be called with m.mu held; locked paths compare gen directly.
func (m *Manager) stale(gen int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return gen != m.gen
}
