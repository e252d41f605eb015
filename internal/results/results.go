// Package results stores computed extension sets keyed by semantics and
// framework sequence number.
package results

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dynaf/internal/asp"
	"dynaf/internal/reconcile"
)

// Status reports whether a sequence point was fully solved.
type Status int

const (
	// StatusComplete means the engine answered within its budget.
	StatusComplete Status = iota + 1
	// StatusInconclusive means the solve timed out; the entry carries no
	// trustworthy extensions.
	StatusInconclusive
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusInconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Entry is one recorded result.
type Entry struct {
	Semantics  asp.Semantics
	Seq        uint64
	Status     Status
	Extensions []reconcile.Extension
	Collapsed  bool
	RecordedAt time.Time
}

// ErrNotFound is returned when no entry exists for the requested key.
var ErrNotFound = errors.New("results: no entry")

// DuplicateError rejects a second record for the same (semantics, seq).
type DuplicateError struct {
	Semantics asp.Semantics
	Seq       uint64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("results: entry for %s at seq %d already recorded", e.Semantics, e.Seq)
}

type key struct {
	sem asp.Semantics
	seq uint64
}

// Store is an append-only in-memory result store. Safe for concurrent
// use; sessions for different semantics share one.
type Store struct {
	mu      sync.RWMutex
	entries map[key]Entry
	latest  map[asp.Semantics]uint64
}

func NewStore() *Store {
	return &Store{
		entries: make(map[key]Entry),
		latest:  make(map[asp.Semantics]uint64),
	}
}

// Record appends an entry. Recording the same (semantics, seq) twice is
// an error; entries are never overwritten.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{e.Semantics, e.Seq}
	if _, dup := s.entries[k]; dup {
		return &DuplicateError{Semantics: e.Semantics, Seq: e.Seq}
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	s.entries[k] = e
	if cur, ok := s.latest[e.Semantics]; !ok || e.Seq > cur {
		s.latest[e.Semantics] = e.Seq
	}
	return nil
}

// Get returns the entry for the given semantics and sequence number.
func (s *Store) Get(sem asp.Semantics, seq uint64) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key{sem, seq}]
	if !ok {
		return Entry{}, fmt.Errorf("%w for %s at seq %d", ErrNotFound, sem, seq)
	}
	return e, nil
}

// Latest returns the entry with the highest sequence number recorded
// for the semantics.
func (s *Store) Latest(sem asp.Semantics) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.latest[sem]
	if !ok {
		return Entry{}, fmt.Errorf("%w for %s", ErrNotFound, sem)
	}
	return s.entries[key{sem, seq}], nil
}

// Len reports the number of recorded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
