package querycache

import "sync"

// Ticket identifies one request issued into a Slot.
type Ticket uint64

// Slot holds what a view currently displays for a query that changes over
// time (e.g. the people search box). Only the most recently issued request
// may commit; a slow response to an older query is dropped.
type Slot[T any] struct {
	name  string
	mu    sync.Mutex
	seq   uint64
	value T
	has   bool
}

func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{name: name}
}

func (s *Slot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Ticket(s.seq)
}

// Commit stores v if t is still the latest ticket.
func (s *Slot[T]) Commit(t Ticket, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.seq {
		cacheDiscarded.WithLabelValues(s.name).Inc()
		return false
	}
	s.value = v
	s.has = true
	return true
}

func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Clear empties the slot and cancels every outstanding ticket.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.seq++
	s.value = zero
	s.has = false
}
