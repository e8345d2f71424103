// Package optimistic applies a local change before the server confirms it
// and rolls it back if the server rejects it.
package optimistic

import (
	"context"
	"sync"
)

// Value is a locally displayed value that may be updated ahead of the
// server. It is safe for concurrent use.
type Value[T any] struct {
	mu      sync.Mutex
	v       T
	version uint64
}

// NewValue creates a Value holding v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the displayed value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set replaces the displayed value with an authoritative one.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	o.version++
}

// Apply displays next immediately, then runs commit. On success the value
// commit returns becomes authoritative. On failure the previous value is
// restored, unless another Apply or Set happened in the meantime, in which
// case the newer value is left alone.
func (o *Value[T]) Apply(ctx context.Context, next T, commit func(ctx context.Context) (T, error)) (T, error) {
	o.mu.Lock()
	prev := o.v
	o.v = next
	o.version++
	mine := o.version
	o.mu.Unlock()

	confirmed, err := commit(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.version != mine {
		return o.v, err
	}
	if err != nil {
		o.v = prev
		o.version++
		return prev, err
	}
	o.v = confirmed
	return confirmed, nil
}
