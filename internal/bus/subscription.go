package bus

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscription is one registered pattern/handler pair. It is owned by the
// subscriptionRegistry and never mutated after creation.
type subscription struct {
	id        string
	pattern   string
	segments  []string // nil for the bare wildcard
	handler   Handler
	createdAt time.Time
}

// subscriptionRegistry holds active subscriptions in registration order so
// fan-out delivery is deterministic.
type subscriptionRegistry struct {
	mu   sync.RWMutex
	subs []*subscription
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{}
}

// add stores a subscription for an already-validated pattern and returns it.
func (r *subscriptionRegistry) add(pattern string, handler Handler) *subscription {
	sub := &subscription{
		id:        uuid.NewString(),
		pattern:   pattern,
		segments:  splitPattern(pattern),
		handler:   handler,
		createdAt: time.Now(),
	}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub
}

// remove deletes the subscription with the given id. Removing an unknown or
// already-removed id is a no-op.
func (r *subscriptionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// matching returns a snapshot of subscriptions whose pattern matches the
// concrete topic, in registration order.
func (r *subscriptionRegistry) matching(topic string) []*subscription {
	segments := strings.Split(topic, ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*subscription
	for _, sub := range r.subs {
		if matchSegments(sub.segments, segments) {
			matched = append(matched, sub)
		}
	}
	return matched
}
