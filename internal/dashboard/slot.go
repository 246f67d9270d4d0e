package dashboard

import "sync"

// Ticket identifies one fetch into a Slot.
type Ticket uint64

// Slot holds the result of one independent dashboard fetch. Each fetch takes a ticket; only
// the latest ticket may write, and nothing may write after Unmount. This is how responses that
// arrive after the user left a view are dropped.
type Slot[T any] struct {
	mu      sync.Mutex
	gen     uint64
	mounted bool
	loading bool
	value   T
	err     error
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{mounted: true}
}

// Begin starts a fetch and marks the slot loading.
func (s *Slot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = s.mounted
	return Ticket(s.gen)
}

// Resolve applies a fetch result and reports whether it was applied. A failed fetch keeps the
// previous value and records err.
func (s *Slot[T]) Resolve(t Ticket, value T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || uint64(t) != s.gen {
		return false
	}
	s.loading = false
	s.err = err
	if err == nil {
		s.value = value
	}
	return true
}

func (s *Slot[T]) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
	s.loading = false
}

type SlotState[T any] struct {
	Value   T
	Loading bool
	Err     error
}

func (s *Slot[T]) Load() SlotState[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotState[T]{Value: s.value, Loading: s.loading, Err: s.err}
}

// Busy reports whether any of the given slots is loading.
func Busy(loading ...interface{ Loading() bool }) bool {
	for _, l := range loading {
		if l.Loading() {
			return true
		}
	}
	return false
}

func (s *Slot[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
