package reconcile

import (
	"sync"
	"time"
)

// Snapshot is a consistent view of the processing set for one render pass.
type Snapshot struct {
	Processing []string
}

// Contains reports whether the booking is in the snapshot's processing set.
func (s Snapshot) Contains(bookingID string) bool {
	for _, id := range s.Processing {
		if id == bookingID {
			return true
		}
	}
	return false
}

// Store owns the set of booking ids with a payment operation in flight.
// Only the engine mutates it; presentation subscribes and reads snapshots.
type Store struct {
	mu         sync.RWMutex
	processing map[string]time.Time
	listeners  []func(Snapshot)
}

func NewStore() *Store {
	return &Store{
		processing: make(map[string]time.Time),
	}
}

// Subscribe registers a listener invoked with a fresh snapshot after every
// mutation. Listeners must not block.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current processing set.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	ids := make([]string, 0, len(s.processing))
	for id := range s.processing {
		ids = append(ids, id)
	}
	return Snapshot{Processing: ids}
}

// IsProcessing reports whether a payment operation is in flight for the
// booking.
func (s *Store) IsProcessing(bookingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processing[bookingID]
	return ok
}

// SweepOlderThan clears processing flags marked before the cutoff and
// returns the cleared ids. The engine clears its own flags on every exit
// path; this is the recovery path for flags leaked by a crashed operation.
func (s *Store) SweepOlderThan(cutoff time.Time) []string {
	s.mu.Lock()
	var cleared []string
	for id, markedAt := range s.processing {
		if markedAt.Before(cutoff) {
			delete(s.processing, id)
			cleared = append(cleared, id)
		}
	}
	snapshot := s.snapshotLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	if len(cleared) > 0 {
		for _, fn := range listeners {
			fn(snapshot)
		}
	}
	return cleared
}

func (s *Store) mark(bookingID string, at time.Time) {
	s.mu.Lock()
	s.processing[bookingID] = at
	snapshot := s.snapshotLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s *Store) clear(bookingID string) {
	s.mu.Lock()
	_, present := s.processing[bookingID]
	delete(s.processing, bookingID)
	snapshot := s.snapshotLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	if !present {
		return
	}
	for _, fn := range listeners {
		fn(snapshot)
	}
}
