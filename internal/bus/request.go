package bus

import (
	"sync"

	"github.com/google/uuid"
)

// requestOutcome is the settled result of one request.
type requestOutcome struct {
	value any
	err   error
}

// pendingRequest correlates one in-flight Request call with the first event
// that settles it: responder result, responder error, timeout, or context
// cancellation. It settles exactly once; later settle attempts report false
// so the losing path can be discarded.
type pendingRequest struct {
	id    string
	topic string
	once  sync.Once
	done  chan requestOutcome // buffered, receives exactly one outcome
}

func newPendingRequest(topic string) *pendingRequest {
	return &pendingRequest{
		id:    uuid.NewString(),
		topic: topic,
		done:  make(chan requestOutcome, 1),
	}
}

// settle records the outcome if this is the first settle call and reports
// whether it won.
func (p *pendingRequest) settle(value any, err error) bool {
	won := false
	p.once.Do(func() {
		p.done <- requestOutcome{value: value, err: err}
		won = true
	})
	return won
}

// pendingRequests tracks outstanding requests by correlation id. Concurrent
// requests to the same topic are independent entries.
type pendingRequests struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func newPendingRequests() *pendingRequests {
	return &pendingRequests{pending: make(map[string]*pendingRequest)}
}

func (r *pendingRequests) add(p *pendingRequest) {
	r.mu.Lock()
	r.pending[p.id] = p
	r.mu.Unlock()
}

func (r *pendingRequests) remove(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// count reports the number of outstanding requests.
func (r *pendingRequests) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
