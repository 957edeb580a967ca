// Package store provides the in-memory key-value store backing the keva
// server, with an optional append-only journal for durability across
// restarts.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entry is one stored value with its revision metadata.
type Entry struct {
	Value     []byte    `json:"value"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventType classifies a change event.
type EventType string

const (
	EventPut    EventType = "put"
	EventDelete EventType = "delete"
)

// Event describes one committed mutation, published to watch subscribers.
type Event struct {
	Type     EventType `json:"type"`
	Key      string    `json:"key"`
	Revision int64     `json:"revision"`
}

// Store is a revisioned key-value store. All methods are safe for
// concurrent use. Mutations are journaled before they are visible to
// readers; durability of a journaled mutation is only guaranteed after a
// subsequent Sync.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	revision int64
	journal  *Journal
}

// New creates a store. When journal is non-nil, its records are replayed to
// rebuild the state from the previous run, and subsequent mutations are
// appended to it.
func New(journal *Journal) (*Store, error) {
	s := &Store{
		entries: make(map[string]Entry),
		journal: journal,
	}

	if journal != nil {
		if err := journal.Replay(s.applyRecord); err != nil {
			return nil, fmt.Errorf("replaying journal: %w", err)
		}
	}
	return s, nil
}

// applyRecord applies one journal record without re-journaling it.
func (s *Store) applyRecord(rec Record) {
	switch rec.Op {
	case opPut:
		s.entries[rec.Key] = Entry{
			Value:     rec.Value,
			Revision:  rec.Revision,
			UpdatedAt: rec.Time,
		}
	case opDelete:
		delete(s.entries, rec.Key)
	}
	if rec.Revision > s.revision {
		s.revision = rec.Revision
	}
}

// Get returns the entry stored under key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok
}

// Put stores value under key and returns the committed entry.
func (s *Store) Put(key string, value []byte) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revision++
	e := Entry{
		Value:     value,
		Revision:  s.revision,
		UpdatedAt: time.Now().UTC(),
	}

	if s.journal != nil {
		rec := Record{Op: opPut, Key: key, Value: value, Revision: e.Revision, Time: e.UpdatedAt}
		if err := s.journal.Append(rec); err != nil {
			s.revision--
			return Entry{}, fmt.Errorf("journaling put of %q: %w", key, err)
		}
	}

	s.entries[key] = e
	return e, nil
}

// Delete removes key and returns the revision of the deletion. The second
// return value reports whether the key existed.
func (s *Store) Delete(key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return 0, false, nil
	}

	s.revision++
	if s.journal != nil {
		rec := Record{Op: opDelete, Key: key, Revision: s.revision, Time: time.Now().UTC()}
		if err := s.journal.Append(rec); err != nil {
			s.revision--
			return 0, false, fmt.Errorf("journaling delete of %q: %w", key, err)
		}
	}

	delete(s.entries, key)
	return s.revision, true, nil
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Revision returns the latest committed revision.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Sync flushes journaled mutations to stable storage. Without a journal it
// is a no-op.
func (s *Store) Sync() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Sync()
}

// Close releases the journal, if any.
func (s *Store) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}
