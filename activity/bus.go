// Package activity keeps independently running browsing contexts of the
// same signed-in principal consistent about idle expiry, and coordinates a
// single forced logout across all of them. It never decides authorization:
// it only predicts, locally, what the server-side session policy will
// independently re-enforce on the next request.
//
// Cross-context communication is modeled as a publish/subscribe bus with
// at-least-once, unordered delivery. Handlers must be idempotent:
// re-applying an activity or logout signal is a no-op beyond the first
// application.
package activity

import (
	"sync"
	"time"

	"github.com/edukit/sessionguard/session"
)

// SignalType discriminates cross-context signals.
type SignalType uint8

const (
	// SignalActivity announces a qualifying user interaction.
	SignalActivity SignalType = iota
	// SignalLogout announces a logout, forced or explicit.
	SignalLogout
)

// Signal is one cross-context message. Origin identifies the publishing
// context so receivers can tell their own signals apart; they must not rely
// on it for correctness.
type Signal struct {
	Type   SignalType
	Kind   session.Kind
	At     time.Time
	Origin string
	Reason string
}

// Bus delivers signals to every subscriber, the publisher's own handler
// included. Delivery is at-least-once and unordered across publishers.
type Bus interface {
	Publish(signal Signal)
	Subscribe(handler func(Signal)) (cancel func())
}

// MemoryBus is the in-process Bus. Handlers run synchronously on the
// publisher's goroutine against a snapshot of the subscriber set, so a
// handler may unsubscribe itself but must not block.
type MemoryBus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Signal)
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[int]func(Signal))}
}

// Subscribe implements Bus. The returned cancel is idempotent.
func (b *MemoryBus) Subscribe(handler func(Signal)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish implements Bus.
func (b *MemoryBus) Publish(signal Signal) {
	b.mu.Lock()
	snapshot := make([]func(Signal), 0, len(b.handlers))
	for _, handler := range b.handlers {
		snapshot = append(snapshot, handler)
	}
	b.mu.Unlock()

	for _, handler := range snapshot {
		handler(signal)
	}
}
