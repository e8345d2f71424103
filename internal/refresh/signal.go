// Package refresh broadcasts "something changed, re-query" to views.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
)

// Signal is a process-wide epoch counter with fan-out to subscribers.
// Create one per process and Close it on shutdown.
type Signal struct {
	epoch atomic.Uint64

	mu     sync.Mutex
	subs   map[chan uint64]struct{}
	closed bool
	done   chan struct{}
}

// NewSignal creates a Signal at epoch 0.
func NewSignal() *Signal {
	return &Signal{
		subs: make(map[chan uint64]struct{}),
		done: make(chan struct{}),
	}
}

// Epoch returns the current epoch.
func (s *Signal) Epoch() uint64 {
	return s.epoch.Load()
}

// Trigger advances the epoch by one and notifies every subscriber. Each call
// is one more re-fetch trigger.
func (s *Signal) Trigger() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	epoch := s.epoch.Add(1)
	if s.closed {
		return epoch
	}

	for sub := range s.subs {
		select {
		case sub <- epoch:
		default:
			// Subscriber is behind: replace its pending epoch with the newest.
			select {
			case <-sub:
			default:
			}
			sub <- epoch
		}
	}
	return epoch
}

// Subscribe returns a channel that receives the new epoch after each
// Trigger. A slow subscriber only keeps the newest epoch. The channel is
// closed when ctx is done or the Signal is closed.
func (s *Signal) Subscribe(ctx context.Context) <-chan uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := make(chan uint64, 1)
	if s.closed {
		close(sub)
		return sub
	}
	s.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return // Close already closed sub
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[sub]; !ok {
			return // closed by Close
		}
		delete(s.subs, sub)
		close(sub)
	}()

	return sub
}

// SubscriberCount returns the number of active subscribers.
func (s *Signal) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close closes every subscriber channel. Trigger keeps counting afterwards
// but notifies no one.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub)
	}
}
