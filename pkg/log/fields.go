package log

const (
	FieldRoomID    = "room_id"
	FieldUserID    = "user_id"
	FieldMessageID = "message_id"
	FieldEvent     = "event"
	FieldSessionID = "session_id"
	FieldAttempt   = "attempt"
)
