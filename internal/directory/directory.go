package directory

import (
	"sync"

	"github.com/TymekV/simple-chat/internal/domain"
)

// Directory holds the room list as the server last reported it. A
// room.list snapshot replaces the whole state; a room.created event
// appends one entry. Rooms are never removed — the server has no
// deletion path, and snapshots arrive often enough (every connect) to
// self-heal drift.
type Directory struct {
	mu    sync.RWMutex
	rooms []domain.RoomListItem
}

func New() *Directory {
	return &Directory{}
}

// Replace installs a full directory snapshot, discarding local state.
func (d *Directory) Replace(rooms []domain.RoomListItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = append([]domain.RoomListItem(nil), rooms...)
}

// Add appends a freshly created room to the directory.
func (d *Directory) Add(room domain.RoomListItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = append(d.rooms, room)
}

// Rooms returns a copy of the directory.
func (d *Directory) Rooms() []domain.RoomListItem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.RoomListItem(nil), d.rooms...)
}

// Get looks a room up by id.
func (d *Directory) Get(roomID string) (domain.RoomListItem, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.rooms {
		if r.ID == roomID {
			return r, true
		}
	}
	return domain.RoomListItem{}, false
}
