package bus

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cdr2/pan/internal/topics"
)

// Event[T] couples a topic name with a payload type so publishing and
// subscribing are checked by the compiler instead of left stringly-typed.
// Declaring an event also registers its documentation with the default
// topics registry.
type Event[T any] struct {
	name string
}

// NewEvent declares a typed event and registers it with the default topics
// registry. It reflects on T's json tags to document the payload fields.
// Events are declared at package level; a bad name or duplicate declaration
// panics at startup.
func NewEvent[T any](name string, description string) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var fields []string
	typeName := ""
	if t != nil {
		typeName = t.Name()
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				tag := t.Field(i).Tag.Get("json")
				if tag == "" || tag == "-" {
					continue
				}
				if comma := strings.IndexByte(tag, ','); comma >= 0 {
					tag = tag[:comma]
				}
				fields = append(fields, tag)
			}
		}
	}

	module, _, _ := strings.Cut(name, ".")
	topics.MustRegister(topics.DefineModule(topics.Config{
		Name:        name,
		Module:      module,
		Description: description,
		Pattern:     name,
		Metadata: map[string]any{
			"payload_fields": fields,
			"type_name":      typeName,
			"is_typed":       true,
		},
	}))

	return Event[T]{name: name}
}

// Name returns the event's topic name.
func (e Event[T]) Name() string {
	return e.name
}

// PublishTyped publishes a payload for a typed event. The compiler ensures
// payload matches the event's type.
func PublishTyped[T any](ctx context.Context, b *Bus, event Event[T], payload T, opts ...PublishOption) error {
	return b.Publish(ctx, event.name, payload, opts...)
}

// SubscribeTyped subscribes to a typed event. A payload of the wrong
// dynamic type is a delivery error routed to the error side channel, not a
// panic.
func SubscribeTyped[T any](b *Bus, event Event[T], handler func(ctx context.Context, payload T) error) (func(), error) {
	return b.Subscribe(event.name, func(ctx context.Context, msg Message) error {
		payload, ok := msg.Payload.(T)
		if !ok {
			return fmt.Errorf("event %s: payload is %T, want %T", event.name, msg.Payload, payload)
		}
		return handler(ctx, payload)
	})
}

// RequestTyped issues a Request on a typed event and asserts the responder's
// result to Resp.
func RequestTyped[Req, Resp any](ctx context.Context, b *Bus, event Event[Req], payload Req, timeout time.Duration) (Resp, error) {
	var zero Resp
	value, err := b.Request(ctx, event.name, payload, timeout)
	if err != nil {
		return zero, err
	}
	resp, ok := value.(Resp)
	if !ok {
		return zero, fmt.Errorf("event %s: responder returned %T, want %T", event.name, value, zero)
	}
	return resp, nil
}
