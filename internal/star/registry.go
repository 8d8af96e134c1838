package star

import (
	"sort"
	"sync"

	"github.com/TymekV/simple-chat/internal/domain"
)

// Registry tracks which messages the local user has starred in the
// current room. It is seeded by a starred_messages.list snapshot and then
// kept current by folding MessageStar/MessageUnstar room events.
type Registry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Replace installs a full snapshot of starred message ids.
func (r *Registry) Replace(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
}

// Apply folds a star or unstar room event; other events are ignored.
// It reports whether the event changed anything.
func (r *Registry) Apply(data domain.EventData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case data.MessageStar != nil:
		r.ids[data.MessageStar.MessageID] = struct{}{}
		return true
	case data.MessageUnstar != nil:
		delete(r.ids, data.MessageUnstar.MessageID)
		return true
	}
	return false
}

// IsStarred reports whether a message id is starred.
func (r *Registry) IsStarred(messageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[messageID]
	return ok
}

// IDs returns the starred message ids, sorted for stable output.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear empties the registry, used when switching rooms.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[string]struct{})
}
