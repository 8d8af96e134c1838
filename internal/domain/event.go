package domain

import "time"

// Event kinds, matching the variant carried in EventData.
const (
	KindMessage        = "Message"
	KindImage          = "Image"
	KindReaction       = "Reaction"
	KindReactionRemove = "ReactionRemove"
	KindUserJoin       = "UserJoin"
	KindUserLeave      = "UserLeave"
	KindMessageEdit    = "MessageEdit"
	KindMessageDelete  = "MessageDelete"
	KindMessageStar    = "MessageStar"
	KindMessageUnstar  = "MessageUnstar"
	KindUnknown        = ""
)

// RoomEvent is the atomic unit of a room timeline. Events are immutable
// once appended; edits and deletes arrive as separate control events that
// the timeline folds into the referenced message's derived state.
type RoomEvent struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
	ClientTag string    `json:"client_tag,omitempty"`
	Data      EventData `json:"data"`
}

// EventData is an externally tagged variant: exactly one field is non-nil
// and the JSON object carries a single key naming it, e.g.
// {"Message": {"content": "hi"}}.
type EventData struct {
	Message        *MessageEvent        `json:"Message,omitempty"`
	Image          *ImageEvent          `json:"Image,omitempty"`
	Reaction       *ReactionEvent       `json:"Reaction,omitempty"`
	ReactionRemove *ReactionRemoveEvent `json:"ReactionRemove,omitempty"`
	UserJoin       *UserPresenceEvent   `json:"UserJoin,omitempty"`
	UserLeave      *UserPresenceEvent   `json:"UserLeave,omitempty"`
	MessageEdit    *MessageEditEvent    `json:"MessageEdit,omitempty"`
	MessageDelete  *MessageDeleteEvent  `json:"MessageDelete,omitempty"`
	MessageStar    *MessageStarEvent    `json:"MessageStar,omitempty"`
	MessageUnstar  *MessageStarEvent    `json:"MessageUnstar,omitempty"`
}

// Kind reports which variant is set.
func (d EventData) Kind() string {
	switch {
	case d.Message != nil:
		return KindMessage
	case d.Image != nil:
		return KindImage
	case d.Reaction != nil:
		return KindReaction
	case d.ReactionRemove != nil:
		return KindReactionRemove
	case d.UserJoin != nil:
		return KindUserJoin
	case d.UserLeave != nil:
		return KindUserLeave
	case d.MessageEdit != nil:
		return KindMessageEdit
	case d.MessageDelete != nil:
		return KindMessageDelete
	case d.MessageStar != nil:
		return KindMessageStar
	case d.MessageUnstar != nil:
		return KindMessageUnstar
	}
	return KindUnknown
}

type MessageEvent struct {
	Content string        `json:"content"`
	Edited  bool          `json:"edited"`
	Deleted bool          `json:"deleted"`
	ReplyTo *MessageReply `json:"reply_to,omitempty"`
}

type ImageEvent struct {
	Filename string        `json:"filename"`
	URL      string        `json:"url"`
	Deleted  bool          `json:"deleted"`
	ReplyTo  *MessageReply `json:"reply_to,omitempty"`
}

type ReactionEvent struct {
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

type ReactionRemoveEvent struct {
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

// UserPresenceEvent carries both UserJoin and UserLeave payloads.
type UserPresenceEvent struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username"`
}

type MessageEditEvent struct {
	MessageID  string `json:"message_id"`
	NewContent string `json:"new_content"`
}

type MessageDeleteEvent struct {
	MessageID string `json:"message_id"`
}

// MessageStarEvent carries both MessageStar and MessageUnstar payloads.
type MessageStarEvent struct {
	MessageID string `json:"message_id"`
}

// Reply preview message types.
const (
	ReplyTypeText    = "Text"
	ReplyTypeImage   = "Image"
	ReplyTypeDeleted = "Deleted"
)

// MessageReply references an earlier message. On outbound sends only
// MessageID is set; the server enriches the preview fields before
// broadcasting.
type MessageReply struct {
	MessageID      string  `json:"message_id"`
	Username       *string `json:"username,omitempty"`
	ContentPreview string  `json:"content_preview,omitempty"`
	MessageType    string  `json:"message_type,omitempty"`
}

// IsMessageClass reports whether the event renders as a timeline entry
// (a message or image creation), as opposed to a control or presence event.
func (e *RoomEvent) IsMessageClass() bool {
	return e.Data.Message != nil || e.Data.Image != nil
}
