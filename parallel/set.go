package parallel

import "sync"

// Set is a thread-safe set of 32-byte fingerprints.
type Set struct {
	mu  sync.RWMutex
	set map[[32]byte]struct{}
}

// NewSet initializes and returns an empty Set.
func NewSet() *Set {
	return &Set{
		set: make(map[[32]byte]struct{}),
	}
}

// Insert adds the fingerprint and reports whether it was not present before.
func (s *Set) Insert(fp [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.set[fp]; ok {
		return false
	}
	s.set[fp] = struct{}{}
	return true
}

// Exists checks if a fingerprint is in the set.
func (s *Set) Exists(fp [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.set[fp]
	return exists
}

// Len returns the number of fingerprints.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}
