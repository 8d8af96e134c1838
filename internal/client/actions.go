package client

import (
	"time"

	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/timeline"
	"github.com/TymekV/simple-chat/pkg/log"
)

// JoinRoom switches the active room: the previous room's timeline,
// roster, typing and starred state are discarded, the join intent is
// emitted, and the starred snapshot is requested. Local state switches
// even when the emit is dropped offline — the rejoin happens
// automatically on the next connect.
func (c *Client) JoinRoom(roomID string) {
	c.mu.Lock()
	prev := c.currentRoom
	c.currentRoom = roomID
	c.mu.Unlock()

	if prev != "" && prev != roomID {
		c.actions.LeaveRoom(prev)
		c.typing.ClearRoom(prev)
	}

	c.timeline.Join(roomID)
	c.roster.Clear()
	c.stars.Clear()
	c.typing.ClearRoom(roomID)

	l := log.L()
	l.Info().Str(log.FieldRoomID, roomID).Msg("joining room")

	c.actions.JoinRoom(roomID)
	c.actions.GetStarredMessages(roomID)
}

// LeaveRoom leaves the active room and discards all of its state.
func (c *Client) LeaveRoom() {
	c.mu.Lock()
	room := c.currentRoom
	c.currentRoom = ""
	c.mu.Unlock()

	if room == "" {
		return
	}

	c.actions.LeaveRoom(room)
	c.timeline.Clear()
	c.roster.Clear()
	c.stars.Clear()
	c.typing.ClearRoom(room)
}

// CurrentRoom returns the active room id, or "".
func (c *Client) CurrentRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentRoom
}

// LoadRoomList requests a fresh directory snapshot.
func (c *Client) LoadRoomList() { c.actions.ListRooms() }

// CreateRoom asks the server to create a room; the new room arrives as a
// room.created event.
func (c *Client) CreateRoom(name string) { c.actions.CreateRoom(name) }

// RequestMembers asks for the roster of a room; the reply replaces the
// local roster wholesale.
func (c *Client) RequestMembers(roomID string) { c.actions.GetMembers(roomID) }

// SetUsername proposes a username; Username() stays nil until the
// server's confirmation arrives.
func (c *Client) SetUsername(username string) { c.actions.SetUsername(username) }

// Rooms returns the room directory.
func (c *Client) Rooms() []domain.RoomListItem { return c.rooms.Rooms() }

// Members returns the active room's roster.
func (c *Client) Members() []domain.RoomMember { return c.roster.Members() }

// SenderName resolves a display name for a sender, preferring the roster
// username and falling back to a session-id prefix.
func (c *Client) SenderName(userID string) string {
	if name, ok := c.roster.Username(userID); ok {
		return name
	}
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}

// Events returns the active room's timeline in receipt order.
func (c *Client) Events() []domain.RoomEvent { return c.timeline.Events() }

// Groups batches the timeline for display.
func (c *Client) Groups() []timeline.MessageGroup {
	return timeline.GroupMessages(c.timeline.Events(), c.ident.IsSelf, c.opts.GroupWindow)
}

// Reactions projects the aggregated reactions for one message.
func (c *Client) Reactions(messageID string) []timeline.ReactionView {
	return c.timeline.Reactions(messageID, c.ident.IsSelf)
}

// TypingUsers lists who is typing in the active room, excluding the
// local user.
func (c *Client) TypingUsers() []domain.TypingIndicator {
	return c.typing.TypersFor(c.CurrentRoom(), c.ident.IsSelf)
}

// IsStarred reports whether the local user starred a message.
func (c *Client) IsStarred(messageID string) bool { return c.stars.IsStarred(messageID) }

// StarredMessageIDs returns the starred ids for the active room.
func (c *Client) StarredMessageIDs() []string { return c.stars.IDs() }

// SendMessage emits a text message to the active room and inserts a
// tentative timeline entry that the server echo reconciles.
func (c *Client) SendMessage(content string, replyTo *domain.MessageReply) {
	room := c.CurrentRoom()
	if room == "" {
		return
	}

	tag := c.actions.SendMessage(room, content, replyTo)
	if tag == "" {
		return
	}
	c.timeline.AppendTentative(domain.RoomEvent{
		From:      c.ident.Session(),
		Timestamp: time.Now().UTC(),
		ClientTag: tag,
		Data: domain.EventData{
			Message: &domain.MessageEvent{Content: content, ReplyTo: replyTo},
		},
	})
}

// SendImage emits an image message to the active room.
func (c *Client) SendImage(filename, url string, replyTo *domain.MessageReply) {
	room := c.CurrentRoom()
	if room == "" {
		return
	}

	tag := c.actions.SendImage(room, filename, url, replyTo)
	if tag == "" {
		return
	}
	c.timeline.AppendTentative(domain.RoomEvent{
		From:      c.ident.Session(),
		Timestamp: time.Now().UTC(),
		ClientTag: tag,
		Data: domain.EventData{
			Image: &domain.ImageEvent{Filename: filename, URL: url, ReplyTo: replyTo},
		},
	})
}

// EditMessage asks the server to rewrite a message; the fold happens on
// the echoed MessageEdit event.
func (c *Client) EditMessage(messageID, newContent string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.EditMessage(room, messageID, newContent)
	}
}

// DeleteMessage asks the server to delete a message.
func (c *Client) DeleteMessage(messageID string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.DeleteMessage(room, messageID)
	}
}

// AddReaction reacts to a message.
func (c *Client) AddReaction(messageID, emoji string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.AddReaction(room, messageID, emoji)
	}
}

// RemoveReaction retracts a reaction.
func (c *Client) RemoveReaction(messageID, emoji string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.RemoveReaction(room, messageID, emoji)
	}
}

// StarMessage stars a message in the active room.
func (c *Client) StarMessage(messageID string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.StarMessage(room, messageID)
	}
}

// UnstarMessage removes a star.
func (c *Client) UnstarMessage(messageID string) {
	if room := c.CurrentRoom(); room != "" {
		c.actions.UnstarMessage(room, messageID)
	}
}

// StartTyping announces that the local user is typing in the active room.
func (c *Client) StartTyping() {
	if room := c.CurrentRoom(); room != "" {
		c.actions.StartTyping(room)
	}
}

// StopTyping retracts the local typing announcement.
func (c *Client) StopTyping() {
	if room := c.CurrentRoom(); room != "" {
		c.actions.StopTyping(room)
	}
}

// Search filters the grouped timeline by a query and optional sender,
// recording the query in the device search history when a store is
// configured.
func (c *Client) Search(query, senderID string) []timeline.MessageGroup {
	groups := timeline.SearchGroups(c.Groups(), timeline.SearchFilter{
		Query:    query,
		SenderID: senderID,
	})

	if c.opts.Store != nil && query != "" {
		if room := c.CurrentRoom(); room != "" {
			if err := c.opts.Store.RecordSearch(room, query); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("failed to record search")
			}
		}
	}
	return groups
}

// SearchHistory returns the active room's recent queries, newest first.
func (c *Client) SearchHistory(limit int) []string {
	if c.opts.Store == nil {
		return nil
	}
	room := c.CurrentRoom()
	if room == "" {
		return nil
	}
	history, err := c.opts.Store.SearchHistory(room, limit)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to load search history")
		return nil
	}
	return history
}
