package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TymekV/simple-chat/internal/conn"
	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/transport"
)

type fakeSocket struct {
	mu      sync.Mutex
	emitted []transport.Envelope
	closed  bool
}

func (s *fakeSocket) Emit(event string, v any) error {
	env, err := transport.NewEnvelope(event, v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrSocketClosed
	}
	s.emitted = append(s.emitted, env)
	return nil
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) envelopes(event string) []transport.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []transport.Envelope
	for _, env := range s.emitted {
		if env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	socks   []*fakeSocket
	onEnv   func(transport.Envelope)
	onClose func(error)
}

func (d *fakeDialer) Dial(_ context.Context, _ string, onEnvelope func(transport.Envelope), onClose func(error)) (transport.Socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	s := &fakeSocket{}
	d.socks = append(d.socks, s)
	d.onEnv = onEnvelope
	d.onClose = onClose
	return s, nil
}

func (d *fakeDialer) socketCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.socks)
}

func (d *fakeDialer) socket(i int) *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.socks[i]
}

func (d *fakeDialer) deliver(t *testing.T, event string, v any) {
	t.Helper()
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.onEnv != nil
	}, time.Second, time.Millisecond)

	env, err := transport.NewEnvelope(event, v)
	require.NoError(t, err)

	d.mu.Lock()
	onEnv := d.onEnv
	d.mu.Unlock()
	onEnv(env)
}

func (d *fakeDialer) drop(err error) {
	d.mu.Lock()
	onClose := d.onClose
	d.mu.Unlock()
	if onClose != nil {
		onClose(err)
	}
}

func newTestClient(t *testing.T, opts Options) (*Client, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	opts.ServerURL = "ws://test/socket"
	opts.ReconnectDelay = time.Millisecond
	opts.Dialer = d
	c := New(opts)
	t.Cleanup(c.Close)
	return c, d
}

func connect(t *testing.T, c *Client, d *fakeDialer, sessionID string) {
	t.Helper()
	c.Connect()
	d.deliver(t, domain.EvtConnectAck, domain.ConnectAck{SessionID: sessionID})
	require.Eventually(t, c.IsConnected, time.Second, time.Millisecond)
}

func roomMessage(id, from, content string, ts time.Time) domain.RoomEvent {
	return domain.RoomEvent{
		ID: id, From: from, Timestamp: ts,
		Data: domain.EventData{Message: &domain.MessageEvent{Content: content}},
	}
}

func TestConnectRefreshesDirectory(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	assert.Equal(t, "sess-1", c.SessionID())

	// The directory refresh goes out as part of the connect sequence.
	require.Eventually(t, func() bool {
		return len(d.socket(0).envelopes(domain.EvtRoomList)) == 1
	}, time.Second, time.Millisecond)

	d.deliver(t, domain.EvtRoomList, domain.RoomListResponse{Rooms: []domain.RoomListItem{
		{ID: "r1", Name: "general", MemberCount: 2},
		{ID: "r2", Name: "random", MemberCount: 1},
	}})

	require.Eventually(t, func() bool { return len(c.Rooms()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "general", c.Rooms()[0].Name)
}

func TestRoomCreatedAppendsToDirectory(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	d.deliver(t, domain.EvtRoomList, domain.RoomListResponse{Rooms: []domain.RoomListItem{
		{ID: "r1", Name: "general"},
	}})
	d.deliver(t, domain.EvtRoomCreated, domain.RoomCreatedEvent{
		Room: domain.RoomListItem{ID: "r2", Name: "ops"},
	})

	require.Eventually(t, func() bool { return len(c.Rooms()) == 2 }, time.Second, time.Millisecond)
}

func TestTimelineGrouping(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	c.JoinRoom("r1")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.deliver(t, domain.EvtRoomEvent, roomMessage("1", "alice", "hi", base))
	d.deliver(t, domain.EvtRoomEvent, roomMessage("2", "bob", "hello", base.Add(2*time.Minute)))
	d.deliver(t, domain.EvtRoomEvent, roomMessage("3", "alice", "how are you", base.Add(4*time.Minute)))

	require.Eventually(t, func() bool { return len(c.Events()) == 3 }, time.Second, time.Millisecond)

	// Alternating senders split into three groups despite the small gaps.
	groups := c.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "alice", groups[0].SenderID)
	assert.Equal(t, "bob", groups[1].SenderID)
	assert.Equal(t, "alice", groups[2].SenderID)
}

func TestEditFoldsIntoMessage(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.deliver(t, domain.EvtRoomEvent, roomMessage("5", "alice", "helo", ts))
	d.deliver(t, domain.EvtRoomEvent, domain.RoomEvent{
		ID: "6", From: "alice", Timestamp: ts.Add(time.Second),
		Data: domain.EventData{MessageEdit: &domain.MessageEditEvent{MessageID: "5", NewContent: "hello"}},
	})

	require.Eventually(t, func() bool {
		events := c.Events()
		return len(events) == 1 && events[0].Data.Message.Edited
	}, time.Second, time.Millisecond)

	events := c.Events()
	assert.Equal(t, "5", events[0].ID)
	assert.Equal(t, "alice", events[0].From)
	assert.True(t, ts.Equal(events[0].Timestamp))
	assert.Equal(t, "hello", events[0].Data.Message.Content)
}

func TestDeleteFoldsIntoMessage(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.deliver(t, domain.EvtRoomEvent, roomMessage("5", "alice", "oops", time.Now()))
	d.deliver(t, domain.EvtRoomEvent, domain.RoomEvent{
		ID: "6", From: "alice", Timestamp: time.Now(),
		Data: domain.EventData{MessageDelete: &domain.MessageDeleteEvent{MessageID: "5"}},
	})

	require.Eventually(t, func() bool {
		events := c.Events()
		return len(events) == 1 && events[0].Data.Message.Deleted
	}, time.Second, time.Millisecond)
	assert.Empty(t, c.Events()[0].Data.Message.Content)
}

func TestJoinEmitsAndResetsState(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	c.JoinRoom("r1")
	d.deliver(t, domain.EvtRoomEvent, roomMessage("1", "alice", "in r1", time.Now()))
	require.Eventually(t, func() bool { return len(c.Events()) == 1 }, time.Second, time.Millisecond)

	c.JoinRoom("r2")
	assert.Equal(t, "r2", c.CurrentRoom())
	assert.Empty(t, c.Events())

	sock := d.socket(0)
	assert.Len(t, sock.envelopes(domain.EvtRoomJoin), 2)
	// Switching rooms leaves the previous one.
	require.Len(t, sock.envelopes(domain.EvtRoomLeave), 1)

	var leave domain.LeaveRoomPayload
	require.NoError(t, sock.envelopes(domain.EvtRoomLeave)[0].Decode(&leave))
	assert.Equal(t, "r1", leave.RoomID)
}

func TestOptimisticSendReconciledByEcho(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	c.SendMessage("hello", nil)

	// Tentative entry appears immediately, attributed to this session.
	events := c.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "sess-1", events[0].From)
	assert.Equal(t, "hello", events[0].Data.Message.Content)
	tag := events[0].ClientTag
	require.NotEmpty(t, tag)

	echo := roomMessage("srv-1", "sess-1", "hello", time.Now())
	echo.ClientTag = tag
	d.deliver(t, domain.EvtRoomEvent, echo)

	require.Eventually(t, func() bool {
		events := c.Events()
		return len(events) == 1 && events[0].ID == "srv-1"
	}, time.Second, time.Millisecond)
}

func TestOfflineSendIsDropped(t *testing.T) {
	c, _ := newTestClient(t, Options{})

	c.JoinRoom("r1")
	c.SendMessage("into the void", nil)

	assert.Empty(t, c.Events())
	assert.Equal(t, conn.StatusDisconnected, c.Status())
}

func TestActionsRequireActiveRoom(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	c.SendMessage("no room", nil)
	c.EditMessage("m1", "new")
	c.StartTyping()

	sock := d.socket(0)
	assert.Empty(t, sock.envelopes(domain.EvtRoomSend))
	assert.Empty(t, sock.envelopes(domain.EvtMessageEdit))
	assert.Empty(t, sock.envelopes(domain.EvtTypingStart))
}

func TestDisconnectClearsTypingAndPending(t *testing.T) {
	c, d := newTestClient(t, Options{ReconnectAttempts: 1})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.deliver(t, domain.EvtTypingStart, domain.TypingIndicator{UserID: "bob", RoomID: "r1"})
	require.Eventually(t, func() bool { return len(c.TypingUsers()) == 1 }, time.Second, time.Millisecond)

	c.SendMessage("unacked", nil)
	require.Len(t, c.Events(), 1)

	d.drop(errors.New("peer vanished"))

	require.Eventually(t, func() bool {
		return len(c.TypingUsers()) == 0 && len(c.Events()) == 0
	}, time.Second, time.Millisecond)
}

func TestReconnectRejoinsCurrentRoom(t *testing.T) {
	c, d := newTestClient(t, Options{ReconnectAttempts: 3})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.drop(errors.New("peer vanished"))

	require.Eventually(t, func() bool { return d.socketCount() == 2 }, time.Second, time.Millisecond)
	d.deliver(t, domain.EvtConnectAck, domain.ConnectAck{SessionID: "sess-2"})
	require.Eventually(t, c.IsConnected, time.Second, time.Millisecond)

	assert.Equal(t, "sess-2", c.SessionID())
	assert.Equal(t, "r1", c.CurrentRoom())

	// The new connection re-lists rooms, rejoins and re-fetches stars.
	sock := d.socket(1)
	require.Eventually(t, func() bool {
		return len(sock.envelopes(domain.EvtRoomJoin)) == 1
	}, time.Second, time.Millisecond)
	assert.Len(t, sock.envelopes(domain.EvtRoomList), 1)
	assert.Len(t, sock.envelopes(domain.EvtStarredGet), 1)
}

func TestOwnMessagesSurviveReconnect(t *testing.T) {
	c, d := newTestClient(t, Options{ReconnectAttempts: 3})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.deliver(t, domain.EvtRoomEvent, roomMessage("1", "sess-1", "mine", time.Now()))
	require.Eventually(t, func() bool { return len(c.Events()) == 1 }, time.Second, time.Millisecond)

	d.drop(errors.New("peer vanished"))
	require.Eventually(t, func() bool { return d.socketCount() == 2 }, time.Second, time.Millisecond)
	d.deliver(t, domain.EvtConnectAck, domain.ConnectAck{SessionID: "sess-2"})
	require.Eventually(t, c.IsConnected, time.Second, time.Millisecond)

	// The pre-reconnect message is still attributed to this client.
	groups := c.Groups()
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsOwnMessage)
}

func TestUsernameConfirmation(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	assert.Nil(t, c.Username())

	c.SetUsername("alice")
	d.deliver(t, domain.EvtUsernameSet, "alice")

	require.Eventually(t, func() bool { return c.Username() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, "alice", *c.Username())

	// The confirmed name does not survive a drop.
	d.drop(errors.New("peer vanished"))
	require.Eventually(t, func() bool { return c.Username() == nil }, time.Second, time.Millisecond)
}

func TestRosterReplaceAndSenderName(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	name := "alice"
	d.deliver(t, domain.EvtRoomMembers, domain.RoomMembersResponse{Members: []domain.RoomMember{
		{UserID: "u1", Username: &name},
		{UserID: "u2"},
	}})

	require.Eventually(t, func() bool { return len(c.Members()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "alice", c.SenderName("u1"))
	// Unnamed members fall back to an id prefix.
	assert.Equal(t, "u2", c.SenderName("u2"))
	assert.Equal(t, "12345678", c.SenderName("123456789abc"))
}

func TestStarredSnapshotAndEvents(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.deliver(t, domain.EvtStarredList, domain.StarredMessagesResponse{StarredMessageIDs: []string{"m1"}})
	require.Eventually(t, func() bool { return c.IsStarred("m1") }, time.Second, time.Millisecond)

	d.deliver(t, domain.EvtRoomEvent, domain.RoomEvent{
		ID: "e1", From: "sess-1", Timestamp: time.Now(),
		Data: domain.EventData{MessageStar: &domain.MessageStarEvent{MessageID: "m2"}},
	})
	require.Eventually(t, func() bool { return c.IsStarred("m2") }, time.Second, time.Millisecond)

	d.deliver(t, domain.EvtRoomEvent, domain.RoomEvent{
		ID: "e2", From: "sess-1", Timestamp: time.Now(),
		Data: domain.EventData{MessageUnstar: &domain.MessageStarEvent{MessageID: "m1"}},
	})
	require.Eventually(t, func() bool { return !c.IsStarred("m1") }, time.Second, time.Millisecond)
}

func TestTypingIndicatorsExcludeSelf(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	d.deliver(t, domain.EvtTypingStart, domain.TypingIndicator{UserID: "sess-1", RoomID: "r1"})
	d.deliver(t, domain.EvtTypingStart, domain.TypingIndicator{UserID: "bob", RoomID: "r1"})

	require.Eventually(t, func() bool { return len(c.TypingUsers()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "bob", c.TypingUsers()[0].UserID)

	d.deliver(t, domain.EvtTypingStop, domain.TypingIndicator{UserID: "bob", RoomID: "r1"})
	require.Eventually(t, func() bool { return len(c.TypingUsers()) == 0 }, time.Second, time.Millisecond)
}

func TestRedeliveredEventDropped(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")
	c.JoinRoom("r1")

	ev := roomMessage("1", "alice", "hi", time.Now())
	d.deliver(t, domain.EvtRoomEvent, ev)
	d.deliver(t, domain.EvtRoomEvent, ev)

	require.Eventually(t, func() bool { return len(c.Events()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, c.Events(), 1)
}

func TestRoomHandleGoesInert(t *testing.T) {
	c, d := newTestClient(t, Options{})
	connect(t, c, d, "sess-1")

	r1 := c.Room("r1")
	require.True(t, r1.Active())

	d.deliver(t, domain.EvtRoomEvent, roomMessage("1", "alice", "hi", time.Now()))
	require.Eventually(t, func() bool { return len(r1.Events()) == 1 }, time.Second, time.Millisecond)

	c.JoinRoom("r2")
	assert.False(t, r1.Active())
	assert.Nil(t, r1.Events())

	// Intents through the stale handle are dropped, not misrouted.
	r1.Send("ghost", nil)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, c.Events())
}
