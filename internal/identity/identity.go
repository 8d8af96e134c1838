package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/TymekV/simple-chat/pkg/log"
)

// Store is the persistence slice Identity needs.
type Store interface {
	LoadIdentity() (string, error)
	SaveIdentity(token string) error
}

// heldSessionCap bounds how many past session ids are remembered for
// IsSelf checks.
const heldSessionCap = 64

// Identity separates the durable client identity from the transport
// session id. The server keys everything by its per-connection session
// id, which regenerates on every reconnect — so "is this mine" checks
// against the current session alone silently reclassify messages sent
// before a reconnect. Identity therefore keeps a persisted client token
// plus a bounded window of session ids held during this process, and
// IsSelf matches any of them.
type Identity struct {
	mu       sync.RWMutex
	clientID string
	current  string
	held     map[string]struct{}
	heldRing []string
}

// Load restores the durable client token from the store, minting and
// persisting one on first run.
func Load(store Store) (*Identity, error) {
	token, err := store.LoadIdentity()
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if token == "" {
		token = uuid.NewString()
		if err := store.SaveIdentity(token); err != nil {
			return nil, fmt.Errorf("save identity: %w", err)
		}
		l := log.L()
		l.Info().Str("client_id", token).Msg("minted client identity")
	}
	return &Identity{clientID: token, held: make(map[string]struct{})}, nil
}

// Ephemeral creates an identity with no backing store; the client token
// lives only for this process.
func Ephemeral() *Identity {
	return &Identity{clientID: uuid.NewString(), held: make(map[string]struct{})}
}

// ClientID returns the durable client token.
func (i *Identity) ClientID() string {
	return i.clientID
}

// BindSession records the session id of a fresh connection. The held
// window is a ring: once full, the oldest remembered session falls out.
func (i *Identity) BindSession(sessionID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current = sessionID

	if _, ok := i.held[sessionID]; ok {
		return
	}
	if len(i.heldRing) >= heldSessionCap {
		oldest := i.heldRing[0]
		i.heldRing = i.heldRing[1:]
		delete(i.held, oldest)
	}
	i.held[sessionID] = struct{}{}
	i.heldRing = append(i.heldRing, sessionID)
}

// ClearSession forgets the current session id (the held set keeps it for
// IsSelf checks against pre-reconnect events).
func (i *Identity) ClearSession() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current = ""
}

// Session returns the current transport session id, or "".
func (i *Identity) Session() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// IsSelf reports whether userID names this client, matching the current
// session or any session held earlier in this process.
func (i *Identity) IsSelf(userID string) bool {
	if userID == "" {
		return false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if userID == i.current {
		return true
	}
	_, ok := i.held[userID]
	return ok
}
