package bus

import (
	"sort"
	"strings"
	"sync"
)

// retainedStore keeps the most recent retained payload per exact topic.
// Lookups are exact-match only; pattern matching happens when a new
// subscription asks for replay, not per publish.
type retainedStore struct {
	mu      sync.RWMutex
	entries map[string]Message
}

func newRetainedStore() *retainedStore {
	return &retainedStore{entries: make(map[string]Message)}
}

// set overwrites the retained message for its exact topic.
func (s *retainedStore) set(msg Message) {
	s.mu.Lock()
	s.entries[msg.Topic] = msg
	s.mu.Unlock()
}

// get returns the retained message for an exact topic, if any.
func (s *retainedStore) get(topic string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.entries[topic]
	return msg, ok
}

// clear removes the retained message for an exact topic.
func (s *retainedStore) clear(topic string) {
	s.mu.Lock()
	delete(s.entries, topic)
	s.mu.Unlock()
}

// matching returns the retained messages whose exact topic matches the
// pattern, sorted by topic so replay order is deterministic.
func (s *retainedStore) matching(pattern []string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Message
	for topic, msg := range s.entries {
		if matchSegments(pattern, strings.Split(topic, ".")) {
			matched = append(matched, msg)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Topic < matched[j].Topic })
	return matched
}
