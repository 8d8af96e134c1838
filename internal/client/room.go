package client

import (
	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/timeline"
)

// Room is a handle scoped to one room id. It reads through to the
// client's state while that room is active and goes inert (empty reads,
// dropped intents) once the client has moved on — a stale handle can
// never leak another room's data.
type Room struct {
	c  *Client
	id string
}

// Room joins roomID and returns a scoped handle for it.
func (c *Client) Room(roomID string) *Room {
	c.JoinRoom(roomID)
	return &Room{c: c, id: roomID}
}

// ID returns the room id this handle is bound to.
func (r *Room) ID() string { return r.id }

// Active reports whether this handle's room is still the client's
// current room.
func (r *Room) Active() bool { return r.c.CurrentRoom() == r.id }

// Leave leaves the room if it is still active.
func (r *Room) Leave() {
	if r.Active() {
		r.c.LeaveRoom()
	}
}

// Events returns the room timeline, or nil if the room is inactive.
func (r *Room) Events() []domain.RoomEvent {
	if !r.Active() {
		return nil
	}
	return r.c.Events()
}

// Groups returns display batches, or nil if the room is inactive.
func (r *Room) Groups() []timeline.MessageGroup {
	if !r.Active() {
		return nil
	}
	return r.c.Groups()
}

// TypingUsers lists other users typing in this room.
func (r *Room) TypingUsers() []domain.TypingIndicator {
	if !r.Active() {
		return nil
	}
	return r.c.TypingUsers()
}

// Send emits a text message into this room.
func (r *Room) Send(content string, replyTo *domain.MessageReply) {
	if r.Active() {
		r.c.SendMessage(content, replyTo)
	}
}

// SendImage emits an image message into this room.
func (r *Room) SendImage(filename, url string, replyTo *domain.MessageReply) {
	if r.Active() {
		r.c.SendImage(filename, url, replyTo)
	}
}

// Edit rewrites one of this room's messages.
func (r *Room) Edit(messageID, newContent string) {
	if r.Active() {
		r.c.EditMessage(messageID, newContent)
	}
}

// Delete removes one of this room's messages.
func (r *Room) Delete(messageID string) {
	if r.Active() {
		r.c.DeleteMessage(messageID)
	}
}

// StartTyping announces typing in this room.
func (r *Room) StartTyping() {
	if r.Active() {
		r.c.StartTyping()
	}
}

// StopTyping retracts the typing announcement.
func (r *Room) StopTyping() {
	if r.Active() {
		r.c.StopTyping()
	}
}
