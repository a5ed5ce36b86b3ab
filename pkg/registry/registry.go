// Package registry implements the handoff between the producer of an
// implementor table (fragment execution) and its consumer (the page that
// renders the trait documentation).
//
// The two sides may initialize in either order. A producer calls
// [Registry.Register] exactly once per fragment: if the consumer callback
// is already installed the table is delivered synchronously, otherwise it
// is parked in a pending slot. A consumer that initializes late installs
// its callback with [Registry.SetConsumer] and then pulls the pending
// table exactly once with [Registry.TakePending]. There is no polling
// and no queue.
//
// Unlike the page-global slots of the generated artifact, a Registry is
// an explicit object scoped to the hosting session; create one per page
// or application session and discard it on teardown.
package registry

import (
	"sync"

	"github.com/matzehuels/traitdex/pkg/index"
)

// Consumer receives an implementor table. It is invoked synchronously on
// the goroutine that calls Register; a panicking consumer propagates to
// that caller.
type Consumer func(*index.Table)

// Registry mediates at-most-one delivery of implementor tables.
// The zero value is not usable; create instances with New.
type Registry struct {
	mu       sync.Mutex
	consumer Consumer
	pending  *index.Table
}

// New creates an empty registry with no consumer and no pending table.
func New() *Registry {
	return &Registry{}
}

// SetConsumer installs the consumer callback. A nil consumer is ignored,
// matching the capability-presence check the fragment performs. Installing
// a consumer does not deliver a pending table; late consumers pull it with
// TakePending.
func (r *Registry) SetConsumer(fn Consumer) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumer = fn
}

// HasConsumer reports whether a consumer callback is installed.
func (r *Registry) HasConsumer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumer != nil
}

// Register hands the table to the consumer if one is installed, invoking
// it synchronously with the table as its only argument and leaving the
// pending slot untouched. Otherwise the table is written to the pending
// slot, replacing any previous pending table. Exactly one of the two
// slots is touched per call.
func (r *Registry) Register(t *index.Table) {
	r.mu.Lock()
	consumer := r.consumer
	if consumer == nil {
		r.pending = t
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	// Deliver outside the lock so the consumer may call back into the
	// registry (e.g. TakePending) without deadlocking.
	consumer(t)
}

// TakePending removes and returns the pending table. The second return is
// false when no table is pending. A consumer that installed its callback
// after fragments ran calls this once, synchronously, to catch up.
func (r *Registry) TakePending() (*index.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.pending
	r.pending = nil
	return t, t != nil
}

// Pending returns the pending table without removing it, for inspection.
func (r *Registry) Pending() (*index.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, r.pending != nil
}
