package domain

// RoomListItem is one directory entry from a room.list snapshot.
type RoomListItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

type RoomListResponse struct {
	Rooms []RoomListItem `json:"rooms"`
}

type RoomCreatedEvent struct {
	Room RoomListItem `json:"room"`
}

// RoomMember is one roster entry from a room.members snapshot.
type RoomMember struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username"`
}

type RoomMembersResponse struct {
	Members []RoomMember `json:"members"`
}

// TypingIndicator is the ephemeral per-user-per-room typing signal.
type TypingIndicator struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username"`
	RoomID   string  `json:"room_id"`
}

type StarredMessagesResponse struct {
	StarredMessageIDs []string `json:"starred_message_ids"`
}

// ConnectAck is the server's first frame on a fresh connection, assigning
// the session id that doubles as the connection-scoped user id.
type ConnectAck struct {
	SessionID string `json:"session_id"`
}
