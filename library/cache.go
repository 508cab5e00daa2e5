package library

import (
	"slices"
	"sync"
	"time"

	"github.com/s0up4200/backloggery/game"
)

// Library is a user's games as fetched at FetchedAt
type Library struct {
	Username  string        `json:"username"`
	FetchedAt time.Time     `json:"fetched_at"`
	Games     []game.Record `json:"games"`
}

// clone returns a Library whose games slice is not shared with l
func (l Library) clone() Library {
	l.Games = slices.Clone(l.Games)
	return l
}

// Store keeps the most recent library per username for the lifetime of the
// process. Entries never expire; they are only replaced or deleted.
//
// Writes are ordered by tickets from Begin. A library stored with
// PutIfNewer is dropped when its fetch began before the current entry's
// fetch or before the last Put, Delete or Clear touching the username.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Library
	seq     uint64
	stamps  map[string]uint64
	floor   uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Library),
		stamps:  make(map[string]uint64),
	}
}

// Begin returns a ticket to pass to PutIfNewer once a fetch completes
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return s.seq
}

// PutIfNewer stores lib unless the entry was written, deleted or cleared
// after ticket was issued. It reports whether lib was stored.
func (s *Store) PutIfNewer(lib Library, ticket uint64) bool {
	lib = lib.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.floor || ticket <= s.stamps[lib.Username] {
		return false
	}
	s.entries[lib.Username] = lib
	s.stamps[lib.Username] = ticket
	return true
}

// Get returns a copy of the cached library for username
func (s *Store) Get(username string) (Library, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.entries[username]
	if !ok {
		return Library{}, false
	}
	return lib.clone(), true
}

// Put replaces the entry for lib.Username
func (s *Store) Put(lib Library) {
	lib = lib.clone()

	s.mu.Lock()
	s.entries[lib.Username] = lib
	s.stamps[lib.Username] = s.seq
	s.mu.Unlock()
}

// Delete removes the entry for username and reports whether it existed
func (s *Store) Delete(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[username]
	delete(s.entries, username)
	s.stamps[username] = s.seq
	return ok
}

// Clear removes every entry
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Library)
	s.stamps = make(map[string]uint64)
	s.floor = s.seq
	s.mu.Unlock()
}

// Len returns the number of cached libraries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Usernames returns the cached usernames in sorted order
func (s *Store) Usernames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.RUnlock()

	slices.Sort(names)
	return names
}
