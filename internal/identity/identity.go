// Package identity assigns durable visitor identifiers and inactivity-bounded
// session identifiers to browsing contexts.
package identity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Storage keys. The durable scope holds the visitor id, the session scope
// holds the session id and its last-seen timestamp.
const (
	VisitorIDKey       = "visitor_id"
	SessionIDKey       = "session_id"
	SessionLastSeenKey = "session_last_seen"
)

// DefaultSessionTimeout is the inactivity window after which a new session
// identifier is issued.
const DefaultSessionTimeout = 30 * time.Minute

// Store is a minimal key-value port over whatever backs identity state:
// cookies on the HTTP path, a map in tests.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// GetOrCreateVisitorID returns the durable visitor identifier from the store,
// minting and persisting a fresh UUID when none exists. It never fails: a
// write that does not stick simply means a new id next time.
func GetOrCreateVisitorID(store Store) string {
	if id, ok := store.Get(VisitorIDKey); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	store.Set(VisitorIDKey, id)
	return id
}

// GetOrCreateSessionID returns the current session identifier, minting a new
// one when none exists or when more than timeout has elapsed since the last
// call. It always refreshes the last-seen timestamp, so a session stays alive
// under continuous activity indefinitely. isNew reports whether a fresh
// session began with this call.
//
// Callers are expected to be a single browsing context; there is no locking.
func GetOrCreateSessionID(store Store, now time.Time, timeout time.Duration) (id string, isNew bool) {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	id, hasID := store.Get(SessionIDKey)
	lastSeen, hasSeen := lastSeenAt(store)

	expired := !hasSeen || now.Sub(lastSeen) > timeout
	if !hasID || id == "" || expired {
		id = uuid.NewString()
		isNew = true
		store.Set(SessionIDKey, id)
	}

	store.Set(SessionLastSeenKey, strconv.FormatInt(now.UnixMilli(), 10))
	return id, isNew
}

func lastSeenAt(store Store) (time.Time, bool) {
	raw, ok := store.Get(SessionLastSeenKey)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// MemoryStore is an in-memory Store for tests and non-HTTP callers.
type MemoryStore struct {
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.values[key] = value
}
