package core

import "sync"

// Cell is the exclusively-owned, checked-borrow cell guarding the
// shared application state. Native callbacks can re-enter the message
// handler on the same stack, so acquisition is try-only: a failed
// acquire means "drop this event, defer to default handling" rather
// than deadlock or double-mutate.
type Cell[T any] struct {
	mu sync.Mutex
	v  *T
}

func NewCell[T any](v *T) *Cell[T] {
	return &Cell[T]{v: v}
}

// TryAcquire attempts to take exclusive ownership. On success it
// returns the value and a release func that must be called before
// posting any follow-up message that could re-enter the handler.
func (c *Cell[T]) TryAcquire() (*T, func(), bool) {
	if !c.mu.TryLock() {
		return nil, nil, false
	}
	return c.v, c.mu.Unlock, true
}
