package directory

import (
	"sync"

	"github.com/TymekV/simple-chat/internal/domain"
)

// Roster is the membership list of the currently open room. It is
// refreshed wholesale by room.members responses; there is no incremental
// diffing.
type Roster struct {
	mu      sync.RWMutex
	members []domain.RoomMember
}

func NewRoster() *Roster {
	return &Roster{}
}

// Replace installs a full membership snapshot.
func (r *Roster) Replace(members []domain.RoomMember) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append([]domain.RoomMember(nil), members...)
}

// Clear empties the roster, used when leaving a room.
func (r *Roster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = nil
}

// Members returns a copy of the roster.
func (r *Roster) Members() []domain.RoomMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.RoomMember(nil), r.members...)
}

// Username resolves a user's display name from the roster, falling back
// to false when the user is unknown or has not chosen a name.
func (r *Roster) Username(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.UserID == userID && m.Username != nil {
			return *m.Username, true
		}
	}
	return "", false
}
