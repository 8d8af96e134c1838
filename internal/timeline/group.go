package timeline

import (
	"time"

	"github.com/TymekV/simple-chat/internal/domain"
)

// DefaultGroupWindow is the largest timestamp gap between two consecutive
// same-sender messages that still batches them into one group.
const DefaultGroupWindow = 5 * time.Minute

// MessageGroup is a contiguous run of messages from one sender, close
// enough in time to render as a single bubble stack.
type MessageGroup struct {
	SenderID     string
	IsOwnMessage bool
	Messages     []domain.RoomEvent
}

// GroupMessages partitions an ordered, already-folded event sequence into
// display groups. A new group starts when the sender changes or when the
// gap to the previous message in the running group exceeds window. Only
// message-class events (Message, Image) participate; control and presence
// events are skipped. The function is pure: input order is preserved
// exactly across the concatenation of all groups.
func GroupMessages(events []domain.RoomEvent, isOwn func(senderID string) bool, window time.Duration) []MessageGroup {
	if window <= 0 {
		window = DefaultGroupWindow
	}
	if isOwn == nil {
		isOwn = func(string) bool { return false }
	}

	var groups []MessageGroup
	var current *MessageGroup

	for _, ev := range events {
		if !ev.IsMessageClass() {
			continue
		}

		if current != nil && current.SenderID == ev.From {
			last := current.Messages[len(current.Messages)-1]
			if ev.Timestamp.Sub(last.Timestamp) <= window {
				current.Messages = append(current.Messages, ev)
				continue
			}
		}

		groups = append(groups, MessageGroup{
			SenderID:     ev.From,
			IsOwnMessage: isOwn(ev.From),
			Messages:     []domain.RoomEvent{ev},
		})
		current = &groups[len(groups)-1]
	}

	return groups
}
