package storage

// Store is the local device store: small durable facts that must survive
// process restarts. The synchronization layer never touches the backing
// database directly.
type Store interface {
	// LoadIdentity returns the persisted client identity token, or ""
	// when none has been saved yet.
	LoadIdentity() (string, error)
	// SaveIdentity persists the client identity token.
	SaveIdentity(token string) error

	// SearchHistory returns a room's recent queries, newest first.
	SearchHistory(roomID string, limit int) ([]string, error)
	// RecordSearch remembers a query for a room, deduplicating repeats
	// and trimming old entries.
	RecordSearch(roomID, query string) error

	Close() error
}
