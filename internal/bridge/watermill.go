// Package bridge relays traffic between a pan bus and watermill.
// Deployments that hand messages to watermill-based consumers subscribe the
// relay to a set of bus patterns; it can also pump a watermill subscription
// back onto the bus so remote producers look like local publishers.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/cdr2/pan/internal/bus"
)

const (
	// Metadata keys used to carry bus message fields through watermill.
	metaKeyTopic    = "pan_topic"
	metaKeyRetained = "pan_retained"
)

// Relay copies bus messages onto a watermill publisher. Payloads are JSON
// encoded; the originating bus topic rides in message metadata and doubles
// as the watermill topic.
type Relay struct {
	bus    *bus.Bus
	pub    message.Publisher
	logger *slog.Logger

	mu     sync.Mutex
	unsubs []func()
	wg     sync.WaitGroup
}

// NewRelay wires a relay between b and pub. Nothing is forwarded until
// Forward is called.
func NewRelay(b *bus.Bus, pub message.Publisher, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{bus: b, pub: pub, logger: logger}
}

// Forward subscribes the relay to each bus pattern and publishes every
// matching delivery to watermill under the message's concrete topic.
func (r *Relay) Forward(patterns ...string) error {
	for _, pattern := range patterns {
		unsubscribe, err := r.bus.Subscribe(pattern, r.forwardHandler())
		if err != nil {
			return fmt.Errorf("bridge: subscribe %q: %w", pattern, err)
		}
		r.mu.Lock()
		r.unsubs = append(r.unsubs, unsubscribe)
		r.mu.Unlock()
	}
	return nil
}

func (r *Relay) forwardHandler() bus.Handler {
	return func(ctx context.Context, msg bus.Message) error {
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("bridge: encode payload for %s: %w", msg.Topic, err)
		}
		wm := message.NewMessage(watermill.NewUUID(), data)
		wm.Metadata.Set(metaKeyTopic, msg.Topic)
		if msg.Retained {
			wm.Metadata.Set(metaKeyRetained, "true")
		}
		return r.pub.Publish(msg.Topic, wm)
	}
}

// Pump consumes a watermill subscription and republishes each message on the
// bus. The bus topic is taken from metadata when present, falling back to
// the watermill topic. Pump returns once the subscription is established;
// consumption stops when ctx is cancelled or the subscriber closes.
func (r *Relay) Pump(ctx context.Context, sub message.Subscriber, topic string) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("bridge: subscribe watermill topic %q: %w", topic, err)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for wm := range messages {
			r.republish(ctx, topic, wm)
		}
		r.logger.Debug("bridge: pump loop ended", "topic", topic)
	}()
	return nil
}

func (r *Relay) republish(ctx context.Context, wmTopic string, wm *message.Message) {
	busTopic := wm.Metadata.Get(metaKeyTopic)
	if busTopic == "" {
		busTopic = wmTopic
	}
	var payload any
	if len(wm.Payload) > 0 {
		if err := json.Unmarshal(wm.Payload, &payload); err != nil {
			r.logger.Error("bridge: malformed payload", "topic", busTopic, "msg_id", wm.UUID, "error", err)
			wm.Nack()
			return
		}
	}
	var opts []bus.PublishOption
	if wm.Metadata.Get(metaKeyRetained) == "true" {
		opts = append(opts, bus.WithRetained())
	}
	if err := r.bus.Publish(ctx, busTopic, payload, opts...); err != nil {
		r.logger.Error("bridge: republish failed", "topic", busTopic, "msg_id", wm.UUID, "error", err)
		wm.Nack()
		return
	}
	wm.Ack()
}

// Close detaches the relay from the bus and waits for pump loops to drain.
// The watermill publisher and subscribers are owned by the caller and are
// not closed here.
func (r *Relay) Close() error {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	r.wg.Wait()
	return nil
}
