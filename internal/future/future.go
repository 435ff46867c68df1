// Package future provides the single-use settle-once primitive used to
// bridge an asynchronous protocol reply into a caller-visible result.
package future

import (
	"sync"
	"sync/atomic"
)

var nextID atomic.Int64

// Deferred settles exactly once with either a value or an error. A fresh
// Deferred must be created per pending exchange; after settling it is
// immutable. The diagnostic ID is monotonically increasing across the
// process and only appears in logs.
type Deferred[T any] struct {
	id   int64
	done chan struct{}

	mu      sync.Mutex
	settled bool
	value   T
	err     error
}

// New allocates an unsettled Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{
		id:   nextID.Add(1),
		done: make(chan struct{}),
	}
}

// ID returns the diagnostic identifier.
func (d *Deferred[T]) ID() int64 { return d.id }

// Resolve settles the Deferred with a value. A second settlement attempt of
// either kind is a no-op and returns false.
func (d *Deferred[T]) Resolve(value T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return false
	}
	d.value = value
	d.settled = true
	close(d.done)
	return true
}

// Reject settles the Deferred with an error. A second settlement attempt of
// either kind is a no-op and returns false.
func (d *Deferred[T]) Reject(err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return false
	}
	d.err = err
	d.settled = true
	close(d.done)
	return true
}

// Done returns a channel closed once the Deferred settles.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Result returns the settled value or error. It must only be called after
// Done is closed.
func (d *Deferred[T]) Result() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

// Settled reports whether the Deferred has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}
