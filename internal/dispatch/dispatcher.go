package dispatch

import (
	"github.com/google/uuid"

	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/pkg/log"
)

// Conn is the slice of the connection manager the dispatcher needs.
type Conn interface {
	Connected() bool
	Emit(event string, v any) error
}

// Dispatcher encodes local user intents into outbound events. Every
// intent is fire-and-forget: while disconnected it logs a warning and
// drops the intent rather than queueing it — there is no outbound retry
// or buffering, so a dropped intent is lost unless the caller re-invokes
// it once the connection is back.
type Dispatcher struct {
	conn Conn
}

func New(conn Conn) *Dispatcher {
	return &Dispatcher{conn: conn}
}

// emit is the single choke point for the connected-state gate.
func (d *Dispatcher) emit(event string, v any) bool {
	l := log.L()
	if !d.conn.Connected() {
		l.Warn().Str(log.FieldEvent, event).Msg("cannot send: not connected")
		return false
	}
	if err := d.conn.Emit(event, v); err != nil {
		l.Warn().Err(err).Str(log.FieldEvent, event).Msg("emit failed")
		return false
	}
	return true
}

// Send emits a message-class payload (Message, Image, Reaction,
// ReactionRemove) into a room. It stamps a client tag for echo
// correlation and returns it; the tag is "" when the send was dropped.
func (d *Dispatcher) Send(roomID string, data domain.EventData) string {
	tag := uuid.NewString()
	payload := domain.SendEventPayload{
		Room:      roomID,
		Payload:   data,
		ClientTag: tag,
	}
	if !d.emit(domain.EvtRoomSend, payload) {
		return ""
	}
	return tag
}

// SendMessage emits a text message.
func (d *Dispatcher) SendMessage(roomID, content string, replyTo *domain.MessageReply) string {
	return d.Send(roomID, domain.EventData{
		Message: &domain.MessageEvent{Content: content, ReplyTo: replyTo},
	})
}

// SendImage emits an image message.
func (d *Dispatcher) SendImage(roomID, filename, url string, replyTo *domain.MessageReply) string {
	return d.Send(roomID, domain.EventData{
		Image: &domain.ImageEvent{Filename: filename, URL: url, ReplyTo: replyTo},
	})
}

// AddReaction emits a reaction to a message. Reactions are not applied
// optimistically; local state changes on the server echo.
func (d *Dispatcher) AddReaction(roomID, messageID, emoji string) bool {
	return d.emit(domain.EvtRoomSend, domain.SendEventPayload{
		Room: roomID,
		Payload: domain.EventData{
			Reaction: &domain.ReactionEvent{MessageID: messageID, Reaction: emoji},
		},
	})
}

// RemoveReaction retracts a previously added reaction.
func (d *Dispatcher) RemoveReaction(roomID, messageID, emoji string) bool {
	return d.emit(domain.EvtRoomSend, domain.SendEventPayload{
		Room: roomID,
		Payload: domain.EventData{
			ReactionRemove: &domain.ReactionRemoveEvent{MessageID: messageID, Reaction: emoji},
		},
	})
}

func (d *Dispatcher) JoinRoom(roomID string) bool {
	return d.emit(domain.EvtRoomJoin, domain.JoinRoomPayload{RoomID: roomID})
}

func (d *Dispatcher) LeaveRoom(roomID string) bool {
	return d.emit(domain.EvtRoomLeave, domain.LeaveRoomPayload{RoomID: roomID})
}

func (d *Dispatcher) ListRooms() bool {
	return d.emit(domain.EvtRoomList, nil)
}

func (d *Dispatcher) CreateRoom(name string) bool {
	return d.emit(domain.EvtRoomCreate, domain.CreateRoomPayload{Name: name})
}

func (d *Dispatcher) GetMembers(roomID string) bool {
	return d.emit(domain.EvtRoomGetMembers, domain.GetMembersPayload{RoomID: roomID})
}

func (d *Dispatcher) SetUsername(username string) bool {
	return d.emit(domain.EvtSetUsername, domain.SetUsernamePayload{Username: username})
}

func (d *Dispatcher) StartTyping(roomID string) bool {
	return d.emit(domain.EvtTypingStart, domain.StartTypingPayload{RoomID: roomID})
}

func (d *Dispatcher) StopTyping(roomID string) bool {
	return d.emit(domain.EvtTypingStop, domain.StopTypingPayload{RoomID: roomID})
}

func (d *Dispatcher) EditMessage(roomID, messageID, newContent string) bool {
	return d.emit(domain.EvtMessageEdit, domain.EditMessagePayload{
		Room:       roomID,
		MessageID:  messageID,
		NewContent: newContent,
	})
}

func (d *Dispatcher) DeleteMessage(roomID, messageID string) bool {
	return d.emit(domain.EvtMessageDelete, domain.DeleteMessagePayload{
		Room:      roomID,
		MessageID: messageID,
	})
}

func (d *Dispatcher) StarMessage(roomID, messageID string) bool {
	return d.emit(domain.EvtMessageStar, domain.StarMessageRequest{
		RoomID:    roomID,
		MessageID: messageID,
	})
}

func (d *Dispatcher) UnstarMessage(roomID, messageID string) bool {
	return d.emit(domain.EvtMessageUnstar, domain.UnstarMessageRequest{
		RoomID:    roomID,
		MessageID: messageID,
	})
}

func (d *Dispatcher) GetStarredMessages(roomID string) bool {
	return d.emit(domain.EvtStarredGet, domain.GetStarredMessagesRequest{RoomID: roomID})
}
