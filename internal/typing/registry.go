package typing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TymekV/simple-chat/internal/domain"
)

// DefaultExpiry is the inactivity window after which a typing indicator
// self-removes when no stop signal arrives.
const DefaultExpiry = 3 * time.Second

// Registry tracks which users are typing in which room. Every entry owns
// exactly one expiry timer; re-announcing typing cancels and re-arms it,
// so lost stop signals cannot leave a phantom typer behind. The registry
// owns all timers and CancelAll releases every one of them.
type Registry struct {
	mu     sync.Mutex
	expiry time.Duration
	closed bool
	seq    uint64

	// room id -> user id -> indicator
	byRoom map[string]map[string]domain.TypingIndicator
	// (room, user) key -> live expiry timer
	timers map[string]expiryTimer
}

// expiryTimer tags a timer with the arming generation, so an expiry that
// fired before a rearm but ran after it can be told apart from the live
// timer under the same key.
type expiryTimer struct {
	t   *time.Timer
	gen uint64
}

func NewRegistry(expiry time.Duration) *Registry {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Registry{
		expiry: expiry,
		byRoom: make(map[string]map[string]domain.TypingIndicator),
		timers: make(map[string]expiryTimer),
	}
}

func timerKey(roomID, userID string) string {
	return fmt.Sprintf("%s:%s", roomID, userID)
}

// Start inserts or refreshes an indicator and (re)arms its expiry timer.
// At most one timer exists per (room, user) key: re-arming is strictly
// cancel-then-set.
func (r *Registry) Start(ind domain.TypingIndicator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	users, ok := r.byRoom[ind.RoomID]
	if !ok {
		users = make(map[string]domain.TypingIndicator)
		r.byRoom[ind.RoomID] = users
	}
	users[ind.UserID] = ind

	key := timerKey(ind.RoomID, ind.UserID)
	if e, ok := r.timers[key]; ok {
		e.t.Stop()
	}
	r.seq++
	gen := r.seq
	r.timers[key] = expiryTimer{
		t:   time.AfterFunc(r.expiry, func() { r.expire(ind.RoomID, ind.UserID, key, gen) }),
		gen: gen,
	}
}

// Stop removes the indicator immediately and cancels its pending timer,
// so no late removal fires afterwards.
func (r *Registry) Stop(ind domain.TypingIndicator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(ind.RoomID, ind.UserID, timerKey(ind.RoomID, ind.UserID))
}

// expire fires from the timer goroutine. It removes the entry only when
// its generation still matches the key: a timer that fired but lost the
// race against a concurrent rearm finds a newer generation and backs off
// without touching the refreshed indicator.
func (r *Registry) expire(roomID, userID, key string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.timers[key]
	if !ok || e.gen != gen {
		return
	}
	r.removeLocked(roomID, userID, key)
}

func (r *Registry) removeLocked(roomID, userID, key string) {
	if e, ok := r.timers[key]; ok {
		e.t.Stop()
		delete(r.timers, key)
	}
	if users, ok := r.byRoom[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.byRoom, roomID)
		}
	}
}

// TypersFor lists the users typing in a room, excluding any for whom
// exclude reports true (the local user never sees their own indicator).
// Output is sorted by user id for stable rendering.
func (r *Registry) TypersFor(roomID string, exclude func(userID string) bool) []domain.TypingIndicator {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.byRoom[roomID]
	if !ok {
		return nil
	}

	out := make([]domain.TypingIndicator, 0, len(users))
	for userID, ind := range users {
		if exclude != nil && exclude(userID) {
			continue
		}
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// ClearRoom drops all of one room's indicators and their timers.
func (r *Registry) ClearRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.byRoom[roomID]
	if !ok {
		return
	}
	for userID := range users {
		key := timerKey(roomID, userID)
		if e, ok := r.timers[key]; ok {
			e.t.Stop()
			delete(r.timers, key)
		}
	}
	delete(r.byRoom, roomID)
}

// Clear cancels every timer and empties the registry. Used on disconnect:
// indicators from the old connection must not survive into the next one.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

// CancelAll is the teardown hook: like Clear, but the registry also stops
// accepting new indicators.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	r.closed = true
}

func (r *Registry) clearLocked() {
	for _, e := range r.timers {
		e.t.Stop()
	}
	r.timers = make(map[string]expiryTimer)
	r.byRoom = make(map[string]map[string]domain.TypingIndicator)
}
