package timeline

import (
	"sync"

	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/pkg/log"
)

// seenRingSize bounds the per-room duplicate-id window.
const seenRingSize = 512

// Log is the append-only event log for the currently joined room. Events
// are never rewritten or removed once appended; edits and deletes are
// folded into the referenced creation event's derived payload, preserving
// its id, sender and timestamp. All state is discarded when the room
// changes — the log is not a cache across room switches.
type Log struct {
	mu     sync.RWMutex
	roomID string
	events []domain.RoomEvent

	// Duplicate-delivery guard: ring of recently appended event ids.
	seen     map[string]struct{}
	seenRing []string

	// Tentative local entries awaiting their server echo, keyed by
	// client tag.
	pending map[string]struct{}

	reactions *reactionIndex
}

func NewLog() *Log {
	return &Log{
		seen:      make(map[string]struct{}),
		pending:   make(map[string]struct{}),
		reactions: newReactionIndex(),
	}
}

// Room returns the room this log currently accumulates, or "".
func (l *Log) Room() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.roomID
}

// Join resets the log for a new room. Any previous room's events are
// discarded.
func (l *Log) Join(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roomID = roomID
	l.reset()
}

// Clear discards all events and detaches from the room. Invoked on leave.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roomID = ""
	l.reset()
}

func (l *Log) reset() {
	l.events = nil
	l.seen = make(map[string]struct{})
	l.seenRing = nil
	l.pending = make(map[string]struct{})
	l.reactions = newReactionIndex()
}

// Append pushes an event to the log in receipt order. It reports false
// when the event was dropped: no room is joined, or the id was already
// seen (redelivery). An event whose client tag matches a tentative entry
// reconciles that entry in place instead of appending.
func (l *Log) Append(ev domain.RoomEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.roomID == "" {
		return false
	}
	if _, dup := l.seen[ev.ID]; dup {
		lg := log.L()
		lg.Debug().Str(log.FieldMessageID, ev.ID).Msg("dropping redelivered event")
		return false
	}

	if ev.ClientTag != "" {
		if _, ok := l.pending[ev.ClientTag]; ok {
			l.reconcileLocked(ev)
			return true
		}
	}

	l.events = append(l.events, ev)
	l.markSeenLocked(ev.ID)
	l.reactions.applyFrom(ev.From, ev.Data)
	return true
}

// AppendTentative inserts a locally originated event before the server
// confirms it. The entry uses the client tag as its provisional id and is
// replaced wholesale when the echo arrives, or rolled back on disconnect.
func (l *Log) AppendTentative(ev domain.RoomEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.roomID == "" || ev.ClientTag == "" {
		return false
	}
	ev.ID = ev.ClientTag
	l.events = append(l.events, ev)
	l.pending[ev.ClientTag] = struct{}{}
	return true
}

// RollbackPending drops every unconfirmed tentative entry. Called on
// disconnect: an unacknowledged send is lost, and keeping it would show
// a message the room never received.
func (l *Log) RollbackPending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return 0
	}

	kept := l.events[:0]
	dropped := 0
	for _, ev := range l.events {
		if _, ok := l.pending[ev.ClientTag]; ok && ev.ClientTag != "" {
			dropped++
			continue
		}
		kept = append(kept, ev)
	}
	l.events = kept
	l.pending = make(map[string]struct{})
	return dropped
}

func (l *Log) reconcileLocked(ev domain.RoomEvent) {
	for i := range l.events {
		if l.events[i].ClientTag == ev.ClientTag {
			l.events[i] = ev
			break
		}
	}
	delete(l.pending, ev.ClientTag)
	l.markSeenLocked(ev.ID)
	// Tentative entries are message-class only, so the reaction index
	// needs no correction here.
}

// FoldEdit locates the creation event for messageID and rewrites its
// derived content, marking it edited. Identity fields are untouched.
// Unknown ids and already-deleted messages are no-ops: there is no
// guaranteed causal ordering between creation and edit delivery, so a
// miss must not fail.
func (l *Log) FoldEdit(messageID, newContent string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.events {
		ev := &l.events[i]
		if ev.ID != messageID {
			continue
		}
		msg := ev.Data.Message
		if msg == nil || msg.Deleted {
			return false
		}
		msg.Content = newContent
		msg.Edited = true
		return true
	}
	return false
}

// FoldDelete blanks the referenced message and marks it deleted. It is
// idempotent; unknown ids are no-ops.
func (l *Log) FoldDelete(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.events {
		ev := &l.events[i]
		if ev.ID != messageID {
			continue
		}
		switch {
		case ev.Data.Message != nil:
			ev.Data.Message.Content = ""
			ev.Data.Message.Deleted = true
		case ev.Data.Image != nil:
			ev.Data.Image.Deleted = true
		default:
			return false
		}
		return true
	}
	return false
}

// Events returns a copy of the log in receipt order.
func (l *Log) Events() []domain.RoomEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.RoomEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len reports the number of events in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Reactions projects the reaction index for one message. isSelf decides
// the UserReacted flag.
func (l *Log) Reactions(messageID string, isSelf func(userID string) bool) []ReactionView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reactions.project(messageID, isSelf)
}

func (l *Log) markSeenLocked(id string) {
	if id == "" {
		return
	}
	if len(l.seenRing) >= seenRingSize {
		oldest := l.seenRing[0]
		l.seenRing = l.seenRing[1:]
		delete(l.seen, oldest)
	}
	l.seen[id] = struct{}{}
	l.seenRing = append(l.seenRing, id)
}
