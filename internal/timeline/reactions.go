package timeline

import (
	"sort"

	"github.com/TymekV/simple-chat/internal/domain"
)

// ReactionView is the per-message aggregate the UI renders: one emoji,
// how many users picked it, and whether the local user is among them.
type ReactionView struct {
	Emoji       string
	Count       int
	UserReacted bool
}

// reactionIndex derives reaction state by replaying Reaction and
// ReactionRemove events in receipt order. The key is
// (message, emoji, user); add inserts it, remove deletes it, so replay
// order decides the outcome per key.
type reactionIndex struct {
	// message id -> emoji -> set of user ids
	byMessage map[string]map[string]map[string]struct{}
}

func newReactionIndex() *reactionIndex {
	return &reactionIndex{byMessage: make(map[string]map[string]map[string]struct{})}
}

// apply folds one event into the index; non-reaction events are ignored.
// The caller supplies the sender via the event it wraps, so apply takes
// the full data plus sender id.
func (ri *reactionIndex) applyFrom(from string, data domain.EventData) {
	switch {
	case data.Reaction != nil:
		r := data.Reaction
		emojis, ok := ri.byMessage[r.MessageID]
		if !ok {
			emojis = make(map[string]map[string]struct{})
			ri.byMessage[r.MessageID] = emojis
		}
		users, ok := emojis[r.Reaction]
		if !ok {
			users = make(map[string]struct{})
			emojis[r.Reaction] = users
		}
		users[from] = struct{}{}

	case data.ReactionRemove != nil:
		r := data.ReactionRemove
		emojis, ok := ri.byMessage[r.MessageID]
		if !ok {
			return
		}
		users, ok := emojis[r.Reaction]
		if !ok {
			return
		}
		delete(users, from)
		if len(users) == 0 {
			delete(emojis, r.Reaction)
		}
		if len(emojis) == 0 {
			delete(ri.byMessage, r.MessageID)
		}
	}
}

// project aggregates one message's reactions, sorted by emoji for a
// stable render order.
func (ri *reactionIndex) project(messageID string, isSelf func(string) bool) []ReactionView {
	emojis, ok := ri.byMessage[messageID]
	if !ok {
		return nil
	}

	out := make([]ReactionView, 0, len(emojis))
	for emoji, users := range emojis {
		view := ReactionView{Emoji: emoji, Count: len(users)}
		if isSelf != nil {
			for user := range users {
				if isSelf(user) {
					view.UserReacted = true
					break
				}
			}
		}
		out = append(out, view)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Emoji < out[j].Emoji })
	return out
}
