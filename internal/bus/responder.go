package bus

import (
	"strings"
	"sync"
)

// responderSlot is the single responder registered for one exact pattern
// string.
type responderSlot struct {
	pattern  string
	segments []string // nil for the bare wildcard
	fn       Responder
}

// responderRegistry holds at most one responder per exact pattern string.
// Registering again on the same pattern replaces the previous responder
// (last writer wins). Wildcard patterns are consulted in registration order
// after exact-topic patterns, so the most specific responder answers.
type responderRegistry struct {
	mu    sync.RWMutex
	slots map[string]*responderSlot
	order []string // pattern registration order, for deterministic wildcard lookup
}

func newResponderRegistry() *responderRegistry {
	return &responderRegistry{slots: make(map[string]*responderSlot)}
}

// set installs fn as the sole responder for pattern. A nil fn removes the
// slot.
func (r *responderRegistry) set(pattern string, fn Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		if _, ok := r.slots[pattern]; ok {
			delete(r.slots, pattern)
			for i, p := range r.order {
				if p == pattern {
					r.order = append(r.order[:i], r.order[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := r.slots[pattern]; !ok {
		r.order = append(r.order, pattern)
	}
	r.slots[pattern] = &responderSlot{pattern: pattern, segments: splitPattern(pattern), fn: fn}
}

// lookup finds the responder for a concrete topic: an exact-pattern slot if
// one exists, otherwise the earliest-registered wildcard pattern that
// matches.
func (r *responderRegistry) lookup(topic string) (*responderSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if slot, ok := r.slots[topic]; ok {
		return slot, true
	}
	segments := strings.Split(topic, ".")
	for _, pattern := range r.order {
		slot := r.slots[pattern]
		if matchSegments(slot.segments, segments) {
			return slot, true
		}
	}
	return nil, false
}
