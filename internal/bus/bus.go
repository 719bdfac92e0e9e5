// Package bus implements the PAN message bus: an in-process, topic-addressed
// publish/subscribe core with single-segment wildcard patterns, retained
// last-value delivery, and a request/response pattern layered on top of
// one-way messaging.
//
// Topics are dot-separated strings like "user.login". Patterns may use "*"
// as a whole segment ("user.*") or be exactly "*" to match every topic.
// Publish is fire-and-forget: handler failures are routed to a side channel
// (the reserved "bus.error" topic and the logger), never back to the
// publisher. Request is the only awaitable operation; a responder's error
// does propagate to the requester.
//
// A Bus is safe for concurrent use. Instances are independent; there is no
// package-level singleton.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cdr2/pan/internal/topics"
)

// ErrorTopic is the reserved topic on which handler failures are published.
// Subscribing to it (or to "*") is the supported observability mechanism.
const ErrorTopic = "bus.error"

func init() {
	topics.Default().MustRegister(topics.DefineFramework(topics.Config{
		Name:        ErrorTopic,
		Description: "Delivery failures reported by the bus dispatch boundary",
		Pattern:     ErrorTopic,
		Example:     `{"topic":"chat.message.new","pattern":"chat.*.*","error":"..."}`,
	}))
}

// Message is one delivery on the bus.
type Message struct {
	// Topic is the concrete, wildcard-free address the message was published to.
	Topic string
	// Payload is the published value. The bus does not inspect it.
	Payload any
	// Retained marks a message stored as the topic's last value.
	Retained bool
	// Timestamp is when the bus accepted the publish.
	Timestamp time.Time
}

// Handler processes a delivered message. A non-nil error (or a panic) is
// caught at the dispatch boundary and reported on the error side channel; it
// never reaches the publisher or other subscribers.
type Handler func(ctx context.Context, msg Message) error

// Responder answers a Request. Its result or error settles the requester's
// wait directly.
type Responder func(ctx context.Context, payload any) (any, error)

// DeliveryError is the payload published on ErrorTopic when a handler fails.
type DeliveryError struct {
	// Topic of the message whose delivery failed.
	Topic string
	// Pattern of the subscription whose handler failed.
	Pattern string
	// Err is the handler's error or recovered panic.
	Err error
}

// PublishOption configures a single Publish call.
type PublishOption func(*publishConfig)

type publishConfig struct {
	retained bool
}

// WithRetained stores the message as the topic's last value, replacing any
// previous one, and replays it to matching subscribers that join later.
func WithRetained() PublishOption {
	return func(c *publishConfig) { c.retained = true }
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithLogger sets the logger used for dispatch failures and discarded
// late responder results. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// WithErrorReporter replaces the default error side channel (log plus a
// publish on ErrorTopic) with a custom reporter.
func WithErrorReporter(fn func(DeliveryError)) Option {
	return func(b *Bus) { b.onError = fn }
}

// Bus is the facade composing the subscription registry, retained store,
// responder registry and request coordination. The zero value is not usable;
// call New.
type Bus struct {
	logger  *slog.Logger
	onError func(DeliveryError)

	subs       *subscriptionRegistry
	retained   *retainedStore
	responders *responderRegistry
	requests   *pendingRequests

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New constructs an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:       newSubscriptionRegistry(),
		retained:   newRetainedStore(),
		responders: newResponderRegistry(),
		requests:   newPendingRequests(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Publish delivers payload to every subscription whose pattern matches
// topic, in registration order. It is fire-and-forget: delivery happens off
// the caller's goroutine and handler failures are reported on the error side
// channel, never returned here. Only validation and closed-bus errors are
// returned.
func (b *Bus) Publish(ctx context.Context, topic string, payload any, opts ...PublishOption) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}
	var cfg publishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	msg := Message{Topic: topic, Payload: payload, Retained: cfg.retained, Timestamp: time.Now()}
	if cfg.retained {
		b.retained.set(msg)
	}
	b.dispatch(ctx, msg)
	return nil
}

// dispatch snapshots the matching subscriptions synchronously, then invokes
// them in registration order on a single delivery goroutine. Snapshotting
// before returning guarantees a subscriber added after Publish does not see
// the message.
func (b *Bus) dispatch(ctx context.Context, msg Message) {
	matched := b.subs.matching(msg.Topic)
	if len(matched) == 0 {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, sub := range matched {
			b.invoke(ctx, sub, msg)
		}
	}()
}

// invoke runs one handler inside its own failure boundary. One handler
// failing or panicking must not prevent delivery to the remaining matched
// handlers.
func (b *Bus) invoke(ctx context.Context, sub *subscription, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.report(DeliveryError{Topic: msg.Topic, Pattern: sub.pattern, Err: fmt.Errorf("handler panic: %v", r)})
		}
	}()
	if err := sub.handler(ctx, msg); err != nil {
		b.report(DeliveryError{Topic: msg.Topic, Pattern: sub.pattern, Err: err})
	}
}

// report routes a handler failure to the side channel. Failures of ErrorTopic
// subscribers themselves are only logged, never re-published.
func (b *Bus) report(derr DeliveryError) {
	if b.onError != nil {
		b.onError(derr)
		return
	}
	b.logger.Error("bus: handler failed",
		"topic", derr.Topic, "pattern", derr.Pattern, "error", derr.Err)
	if derr.Topic == ErrorTopic {
		return
	}
	msg := Message{Topic: ErrorTopic, Payload: derr, Timestamp: time.Now()}
	for _, sub := range b.subs.matching(ErrorTopic) {
		b.invoke(context.Background(), sub, msg)
	}
}

// Subscribe registers handler for every future message matching pattern and
// returns an unsubscribe function that is safe to call multiple times.
// Retained messages whose exact topic matches the pattern are replayed to
// the handler synchronously, before Subscribe returns, each exactly once.
func (b *Bus) Subscribe(pattern string, handler Handler) (func(), error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, &InvalidTopicError{Topic: pattern, Reason: "nil handler"}
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}
	sub := b.subs.add(pattern, handler)
	for _, msg := range b.retained.matching(sub.segments) {
		b.invoke(context.Background(), sub, msg)
	}
	return func() { b.subs.remove(sub.id) }, nil
}

// Respond installs fn as the sole responder for pattern. Registering again
// on the same pattern replaces the previous responder: last writer wins.
// A nil fn removes the registration.
func (b *Bus) Respond(pattern string, fn Responder) error {
	if err := ValidatePattern(pattern); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}
	b.responders.set(pattern, fn)
	return nil
}

// Request publishes payload on topic and waits for the matching responder's
// result, a timeout, or ctx cancellation, whichever settles first. Exactly
// one of those settles the request; a responder result arriving after the
// timeout is discarded and logged. With no responder registered for the
// topic at call time, Request fails fast with NoResponderError.
//
// The message also participates in normal subscription fan-out, so a
// wildcard observer sees request traffic.
func (b *Bus) Request(ctx context.Context, topic string, payload any, timeout time.Duration) (any, error) {
	if err := ValidateTopic(topic); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}
	slot, ok := b.responders.lookup(topic)
	if !ok {
		return nil, &NoResponderError{Topic: topic}
	}

	pending := newPendingRequest(topic)
	b.requests.add(pending)
	defer b.requests.remove(pending.id)

	msg := Message{Topic: topic, Payload: payload, Timestamp: time.Now()}
	b.dispatch(ctx, msg)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				pending.settle(nil, fmt.Errorf("bus: responder panic: %v", r))
			}
		}()
		value, err := slot.fn(ctx, payload)
		if !pending.settle(value, err) {
			b.logger.Warn("bus: late responder result discarded",
				"topic", topic, "request_id", pending.id, "error", err)
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-pending.done:
		return out.value, out.err
	case <-timer.C:
		pending.settle(nil, &RequestTimeoutError{Topic: topic, Timeout: timeout})
	case <-ctx.Done():
		pending.settle(nil, ctx.Err())
	}
	// The winning settle above may have lost a race with the responder; the
	// buffered channel holds whichever outcome actually won.
	out := <-pending.done
	return out.value, out.err
}

// ClearRetained removes the retained message for an exact topic, if any.
func (b *Bus) ClearRetained(topic string) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	b.retained.clear(topic)
	return nil
}

// PendingRequests reports the number of Request calls currently awaiting an
// outcome.
func (b *Bus) PendingRequests() int {
	return b.requests.count()
}

// Close stops accepting new work and waits for in-flight deliveries and
// responder invocations to finish. Operations after Close return ErrClosed.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	b.wg.Wait()
	return nil
}
