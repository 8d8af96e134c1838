package client

import (
	"sync"
	"time"

	"github.com/TymekV/simple-chat/internal/conn"
	"github.com/TymekV/simple-chat/internal/directory"
	"github.com/TymekV/simple-chat/internal/dispatch"
	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/identity"
	"github.com/TymekV/simple-chat/internal/star"
	"github.com/TymekV/simple-chat/internal/storage"
	"github.com/TymekV/simple-chat/internal/timeline"
	"github.com/TymekV/simple-chat/internal/transport"
	"github.com/TymekV/simple-chat/internal/typing"
	"github.com/TymekV/simple-chat/pkg/log"
)

// Options configures a Client. Zero values fall back to the documented
// defaults.
type Options struct {
	ServerURL         string
	Socket            transport.Config
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	TypingExpiry      time.Duration
	GroupWindow       time.Duration

	// Dialer overrides the websocket dialer (tests inject a fake here).
	Dialer transport.Dialer
	// Identity overrides the durable identity; Ephemeral when nil.
	Identity *identity.Identity
	// Store enables search-history persistence; optional.
	Store storage.Store

	// OnRoomEvent fires for every event appended to the timeline.
	OnRoomEvent func(ev domain.RoomEvent)
	// OnStatusChange fires on connection lifecycle transitions.
	OnStatusChange func(status conn.Status)
}

// Client is the synchronization layer: it owns the connection, ingests
// the server's event stream on a single goroutine, and reduces it into
// the room directory, the active room's timeline, membership, starred
// and typing state. All state is exposed read-only; the embedding UI
// mutates nothing directly and issues intents through the action
// methods, whose effects land only via the server's echo.
type Client struct {
	opts    Options
	mgr     *conn.Manager
	actions *dispatch.Dispatcher

	timeline *timeline.Log
	typing   *typing.Registry
	rooms    *directory.Directory
	roster   *directory.Roster
	stars    *star.Registry
	ident    *identity.Identity

	mu          sync.RWMutex
	currentRoom string
	username    *string

	inbox     chan loopMsg
	done      chan struct{}
	closeOnce sync.Once
}

type loopMsgKind int

const (
	msgConnected loopMsgKind = iota
	msgDisconnected
	msgEnvelope
)

type loopMsg struct {
	kind      loopMsgKind
	sessionID string
	err       error
	env       transport.Envelope
}

func New(opts Options) *Client {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.GroupWindow <= 0 {
		opts.GroupWindow = timeline.DefaultGroupWindow
	}
	if opts.Dialer == nil {
		opts.Dialer = &transport.WSDialer{Config: opts.Socket}
	}

	ident := opts.Identity
	if ident == nil {
		ident = identity.Ephemeral()
	}

	c := &Client{
		opts:     opts,
		timeline: timeline.NewLog(),
		typing:   typing.NewRegistry(opts.TypingExpiry),
		rooms:    directory.New(),
		roster:   directory.NewRoster(),
		stars:    star.NewRegistry(),
		ident:    ident,
		inbox:    make(chan loopMsg, 256),
		done:     make(chan struct{}),
	}

	c.mgr = conn.NewManager(conn.Options{
		URL:               opts.ServerURL,
		ReconnectAttempts: opts.ReconnectAttempts,
		ReconnectDelay:    opts.ReconnectDelay,
		Dialer:            opts.Dialer,
	}, conn.Handlers{
		OnConnect:    func(sessionID string) { c.push(loopMsg{kind: msgConnected, sessionID: sessionID}) },
		OnDisconnect: func(err error) { c.push(loopMsg{kind: msgDisconnected, err: err}) },
		OnEnvelope:   func(env transport.Envelope) { c.push(loopMsg{kind: msgEnvelope, env: env}) },
	})
	c.actions = dispatch.New(c.mgr)

	go c.run()
	return c
}

func (c *Client) push(m loopMsg) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// run is the single reducer goroutine: every inbound event and lifecycle
// transition is applied here, to completion, one at a time.
func (c *Client) run() {
	for {
		select {
		case <-c.done:
			return
		case m := <-c.inbox:
			switch m.kind {
			case msgConnected:
				c.handleConnected(m.sessionID)
			case msgDisconnected:
				c.handleDisconnected(m.err)
			case msgEnvelope:
				c.handleEnvelope(m.env)
			}
		}
	}
}

func (c *Client) handleConnected(sessionID string) {
	c.ident.BindSession(sessionID)

	// Refresh the directory, and resume the room that was open when the
	// previous connection dropped. The server treats the rejoin as a new
	// membership; nothing missed while offline is replayed.
	c.actions.ListRooms()

	c.mu.RLock()
	room := c.currentRoom
	c.mu.RUnlock()
	if room != "" {
		c.actions.JoinRoom(room)
		c.actions.GetStarredMessages(room)
	}

	if c.opts.OnStatusChange != nil {
		c.opts.OnStatusChange(conn.StatusConnected)
	}
}

func (c *Client) handleDisconnected(err error) {
	c.ident.ClearSession()

	c.mu.Lock()
	c.username = nil
	c.mu.Unlock()

	// Indicators and unacknowledged sends belong to the dead connection.
	c.typing.Clear()
	if n := c.timeline.RollbackPending(); n > 0 {
		l := log.L()
		l.Debug().Int("rolled_back", n).Msg("dropped unacknowledged sends")
	}

	if c.opts.OnStatusChange != nil {
		c.opts.OnStatusChange(c.mgr.Status())
	}
}

func (c *Client) handleEnvelope(env transport.Envelope) {
	l := log.L()

	switch env.Event {
	case domain.EvtRoomEvent:
		var ev domain.RoomEvent
		if err := env.Decode(&ev); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("malformed room event")
			return
		}
		c.handleRoomEvent(ev)

	case domain.EvtRoomList:
		var resp domain.RoomListResponse
		if err := env.Decode(&resp); err != nil {
			l.Warn().Err(err).Msg("malformed room list")
			return
		}
		c.rooms.Replace(resp.Rooms)

	case domain.EvtRoomCreated:
		var created domain.RoomCreatedEvent
		if err := env.Decode(&created); err != nil {
			l.Warn().Err(err).Msg("malformed room created event")
			return
		}
		c.rooms.Add(created.Room)

	case domain.EvtRoomMembers:
		var resp domain.RoomMembersResponse
		if err := env.Decode(&resp); err != nil {
			l.Warn().Err(err).Msg("malformed members response")
			return
		}
		c.roster.Replace(resp.Members)

	case domain.EvtUsernameSet:
		var username string
		if err := env.Decode(&username); err != nil {
			l.Warn().Err(err).Msg("malformed username confirmation")
			return
		}
		c.mu.Lock()
		c.username = &username
		c.mu.Unlock()

	case domain.EvtTypingStart:
		var ind domain.TypingIndicator
		if err := env.Decode(&ind); err != nil {
			return
		}
		c.typing.Start(ind)

	case domain.EvtTypingStop:
		var ind domain.TypingIndicator
		if err := env.Decode(&ind); err != nil {
			return
		}
		c.typing.Stop(ind)

	case domain.EvtStarredList:
		var resp domain.StarredMessagesResponse
		if err := env.Decode(&resp); err != nil {
			l.Warn().Err(err).Msg("malformed starred list")
			return
		}
		c.stars.Replace(resp.StarredMessageIDs)

	default:
		l.Debug().Str(log.FieldEvent, env.Event).Msg("ignoring unknown event")
	}
}

// handleRoomEvent routes one timeline event: edit and delete control
// events fold into the referenced message, star events additionally
// update the starred set, everything else appends.
func (c *Client) handleRoomEvent(ev domain.RoomEvent) {
	switch {
	case ev.Data.MessageEdit != nil:
		edit := ev.Data.MessageEdit
		c.timeline.FoldEdit(edit.MessageID, edit.NewContent)
		return

	case ev.Data.MessageDelete != nil:
		c.timeline.FoldDelete(ev.Data.MessageDelete.MessageID)
		return

	case ev.Data.MessageStar != nil, ev.Data.MessageUnstar != nil:
		c.stars.Apply(ev.Data)
	}

	if !c.timeline.Append(ev) {
		return
	}
	if c.opts.OnRoomEvent != nil {
		c.opts.OnRoomEvent(ev)
	}
}

// Connect starts establishing the channel; it never blocks on the
// outcome.
func (c *Client) Connect() { c.mgr.Connect() }

// Disconnect tears the channel down without releasing the client.
func (c *Client) Disconnect() { c.mgr.Disconnect() }

// Reconnect forces a fresh connection.
func (c *Client) Reconnect() { c.mgr.Reconnect() }

// Close disconnects and releases all timers. The client is unusable
// afterwards.
func (c *Client) Close() {
	c.mgr.Disconnect()
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.typing.CancelAll()
}

// Status returns the connection lifecycle state.
func (c *Client) Status() conn.Status { return c.mgr.Status() }

// IsConnected reports whether the handshake has completed.
func (c *Client) IsConnected() bool { return c.mgr.Connected() }

// SessionID returns the transport-assigned id for the current
// connection, or "".
func (c *Client) SessionID() string { return c.mgr.SessionID() }

// ClientID returns the durable client identity token.
func (c *Client) ClientID() string { return c.ident.ClientID() }

// Username returns the confirmed username, or nil until the server
// acknowledges user.set_username. A nil username is the signal to prompt
// for one.
func (c *Client) Username() *string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}
