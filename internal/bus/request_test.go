package bus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdr2/pan/internal/bus"
)

type addArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func TestRequestResolvesWithResponderResult(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.add", func(ctx context.Context, payload any) (any, error) {
		args := payload.(addArgs)
		return args.A + args.B, nil
	}))

	result, err := b.Request(context.Background(), "svc.add", addArgs{A: 1, B: 2}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, result)
	assert.Zero(t, b.PendingRequests())
}

func TestRequestFailsFastWithoutResponder(t *testing.T) {
	b := bus.New()
	defer b.Close()

	start := time.Now()
	_, err := b.Request(context.Background(), "svc.missing", nil, 500*time.Millisecond)
	var noResponder *bus.NoResponderError
	require.ErrorAs(t, err, &noResponder)
	assert.Equal(t, "svc.missing", noResponder.Topic)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "fail fast, do not wait for the timeout")
}

func TestRequestTimesOut(t *testing.T) {
	b := bus.New()
	defer b.Close()

	release := make(chan struct{})
	require.NoError(t, b.Respond("svc.slow", func(ctx context.Context, payload any) (any, error) {
		<-release
		return "too late", nil
	}))

	_, err := b.Request(context.Background(), "svc.slow", nil, 20*time.Millisecond)
	var timeout *bus.RequestTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "svc.slow", timeout.Topic)

	// The late responder result is discarded; Close must still drain cleanly.
	close(release)
}

func TestResponderErrorPropagatesToRequester(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.fail", func(ctx context.Context, payload any) (any, error) {
		return nil, errors.New("backend unavailable")
	}))

	_, err := b.Request(context.Background(), "svc.fail", nil, time.Second)
	assert.EqualError(t, err, "backend unavailable")
}

func TestResponderPanicRejectsRequest(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.explode", func(ctx context.Context, payload any) (any, error) {
		panic("kaboom")
	}))

	_, err := b.Request(context.Background(), "svc.explode", nil, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "responder panic")
}

func TestRespondLastWriterWins(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.greet", func(ctx context.Context, payload any) (any, error) {
		return "first", nil
	}))
	require.NoError(t, b.Respond("svc.greet", func(ctx context.Context, payload any) (any, error) {
		return "second", nil
	}))

	result, err := b.Request(context.Background(), "svc.greet", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", result, "registering again on the same pattern replaces the responder")
}

func TestRespondNilUnregisters(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.tmp", func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	}))
	require.NoError(t, b.Respond("svc.tmp", nil))

	_, err := b.Request(context.Background(), "svc.tmp", nil, time.Second)
	var noResponder *bus.NoResponderError
	assert.ErrorAs(t, err, &noResponder)
}

func TestExactResponderPreferredOverWildcard(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.*", func(ctx context.Context, payload any) (any, error) {
		return "wildcard", nil
	}))
	require.NoError(t, b.Respond("svc.ping", func(ctx context.Context, payload any) (any, error) {
		return "exact", nil
	}))

	result, err := b.Request(context.Background(), "svc.ping", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "exact", result)

	result, err = b.Request(context.Background(), "svc.pong", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "wildcard", result)
}

func TestConcurrentRequestsDoNotCrossResolve(t *testing.T) {
	b := bus.New()
	defer b.Close()

	require.NoError(t, b.Respond("svc.echo", func(ctx context.Context, payload any) (any, error) {
		time.Sleep(time.Duration(payload.(int)) * time.Millisecond)
		return payload, nil
	}))

	var wg sync.WaitGroup
	for _, delay := range []int{30, 5, 15} {
		wg.Add(1)
		go func(want int) {
			defer wg.Done()
			got, err := b.Request(context.Background(), "svc.echo", want, time.Second)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}(delay)
	}
	wg.Wait()
	assert.Zero(t, b.PendingRequests())
}

func TestRequestContextCancellation(t *testing.T) {
	b := bus.New()
	defer b.Close()

	release := make(chan struct{})
	require.NoError(t, b.Respond("svc.hang", func(ctx context.Context, payload any) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := b.Request(ctx, "svc.hang", nil, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestRequestRequiresPositiveTimeout(t *testing.T) {
	b := bus.New()
	defer b.Close()

	_, err := b.Request(context.Background(), "svc.add", nil, 0)
	assert.ErrorIs(t, err, bus.ErrInvalidTimeout)
	_, err = b.Request(context.Background(), "svc.add", nil, -time.Second)
	assert.ErrorIs(t, err, bus.ErrInvalidTimeout)
}

func TestRequestRejectsWildcardTopic(t *testing.T) {
	b := bus.New()
	defer b.Close()

	_, err := b.Request(context.Background(), "svc.*", nil, time.Second)
	var invalid *bus.InvalidTopicError
	assert.ErrorAs(t, err, &invalid)
}

func TestRequestTrafficVisibleToObservers(t *testing.T) {
	b := bus.New()
	defer b.Close()

	seen := make(chan bus.Message, 1)
	_, err := b.Subscribe("*", func(ctx context.Context, msg bus.Message) error {
		seen <- msg
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Respond("svc.ping", func(ctx context.Context, payload any) (any, error) {
		return "pong", nil
	}))

	_, err = b.Request(context.Background(), "svc.ping", "hello", time.Second)
	require.NoError(t, err)

	msg := waitFor(t, seen)
	assert.Equal(t, "svc.ping", msg.Topic)
	assert.Equal(t, "hello", msg.Payload)
}
