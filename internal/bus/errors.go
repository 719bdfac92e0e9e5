package bus

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by bus operations after Close has been called.
var ErrClosed = errors.New("bus: closed")

// ErrInvalidTimeout is returned by Request when the timeout is not positive.
// A timeout is a required argument; there is no infinite wait.
var ErrInvalidTimeout = errors.New("bus: request timeout must be positive")

// InvalidTopicError reports a malformed topic or pattern. It is raised
// synchronously at the call site (Publish, Subscribe, Request, Respond);
// these are programmer errors, not runtime conditions to recover from.
type InvalidTopicError struct {
	// Topic is the offending topic or pattern string.
	Topic string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *InvalidTopicError) Error() string {
	return fmt.Sprintf("bus: invalid topic %q: %s", e.Topic, e.Reason)
}

// NoResponderError is returned by Request when no responder pattern matches
// the topic at call time. The bus fails fast rather than waiting out the
// timeout; responders are expected to register before request traffic starts.
type NoResponderError struct {
	Topic string
}

func (e *NoResponderError) Error() string {
	return fmt.Sprintf("bus: no responder registered for topic %q", e.Topic)
}

// RequestTimeoutError is returned by Request when the responder did not
// settle within the timeout.
type RequestTimeoutError struct {
	Topic   string
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("bus: request to %q timed out after %s", e.Topic, e.Timeout)
}
