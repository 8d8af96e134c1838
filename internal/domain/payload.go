package domain

// Client -> server event names.
const (
	EvtRoomSend        = "room.send"
	EvtRoomJoin        = "room.join"
	EvtRoomLeave       = "room.leave"
	EvtRoomList        = "room.list"
	EvtRoomCreate      = "room.create"
	EvtRoomGetMembers  = "room.get_members"
	EvtSetUsername     = "user.set_username"
	EvtTypingStart     = "typing.start"
	EvtTypingStop      = "typing.stop"
	EvtMessageEdit     = "message.edit"
	EvtMessageDelete   = "message.delete"
	EvtMessageStar     = "message.star"
	EvtMessageUnstar   = "message.unstar"
	EvtStarredGet      = "starred_messages.get"
)

// Server -> client event names.
const (
	EvtConnectAck  = "connect.ack"
	EvtRoomEvent   = "room.event"
	EvtRoomCreated = "room.created"
	EvtRoomMembers = "room.members"
	EvtUsernameSet = "username.set"
	EvtStarredList = "starred_messages.list"
)

// SendEventPayload wraps an outbound message-class event for a room.
// ClientTag correlates the server echo with the tentative local entry.
type SendEventPayload struct {
	Room      string    `json:"room"`
	Payload   EventData `json:"payload"`
	ClientTag string    `json:"client_tag,omitempty"`
}

type JoinRoomPayload struct {
	RoomID   string  `json:"room_id"`
	RoomName *string `json:"room_name"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

type CreateRoomPayload struct {
	Name string `json:"name"`
}

type GetMembersPayload struct {
	RoomID string `json:"room_id"`
}

type SetUsernamePayload struct {
	Username string `json:"username"`
}

type StartTypingPayload struct {
	RoomID string `json:"room_id"`
}

type StopTypingPayload struct {
	RoomID string `json:"room_id"`
}

type EditMessagePayload struct {
	Room       string `json:"room"`
	MessageID  string `json:"message_id"`
	NewContent string `json:"new_content"`
}

type DeleteMessagePayload struct {
	Room      string `json:"room"`
	MessageID string `json:"message_id"`
}

type StarMessageRequest struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type UnstarMessageRequest struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type GetStarredMessagesRequest struct {
	RoomID string `json:"room_id"`
}
