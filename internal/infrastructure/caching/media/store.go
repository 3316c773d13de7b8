// Package media provides the bounded in-memory cache for downloaded media
// blobs, keyed by message id.
package media

import (
	"sync"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
)

// Entry is one cached media blob. Read-only after creation.
type Entry struct {
	MimeType string
	Data     string // base64, as received from the client
	SavedAt  time.Time
}

// Store is a capacity-bounded media cache with insertion-order FIFO eviction.
// The cache optimizes for "most recently active messages stay available":
// inserting a new key at capacity evicts exactly the oldest-inserted entry,
// and overwriting an existing key never evicts anything. All operations are
// total; none can fail.
type Store struct {
	mu       sync.Mutex
	entries  map[string]Entry
	order    []string // insertion order, oldest first
	capacity int
}

// NewStore creates a Store holding at most capacity entries. A capacity below
// one falls back to one.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		entries:  make(map[string]Entry),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Put stores or overwrites the entry for id. When the cache is at capacity
// and id is new, the oldest-inserted entry is evicted first.
func (s *Store) Put(id string, payload chat.MediaPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		// Pure overwrite: value refreshes, insertion order does not.
		s.entries[id] = Entry{MimeType: payload.MimeType, Data: payload.Data, SavedAt: time.Now().UTC()}
		return
	}

	if len(s.entries) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}

	s.entries[id] = Entry{MimeType: payload.MimeType, Data: payload.Data, SavedAt: time.Now().UTC()}
	s.order = append(s.order, id)
}

// Get returns the entry for id and whether it was present.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// Clear empties the cache unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	s.order = s.order[:0]
}

// Len returns the current number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
