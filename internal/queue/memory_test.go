package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerolens/aerolens/internal/logging"
)

func collect(t *testing.T, q Subscriber, subject string, want int) (<-chan [][]byte, func([]byte) error) {
	t.Helper()
	var (
		mu  sync.Mutex
		got [][]byte
	)
	done := make(chan [][]byte, 1)
	handler := func(data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, data)
		if len(got) == want {
			done <- got
		}
		return nil
	}
	return done, handler
}

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	done, handler := collect(t, q, "telemetry.observations", 2)
	require.NoError(t, q.Subscribe("telemetry.observations", handler))

	require.NoError(t, q.Publish(context.Background(), "telemetry.observations", []byte("a")))
	require.NoError(t, q.Publish(context.Background(), "telemetry.observations", []byte("b")))

	select {
	case got := <-done:
		assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("messages not delivered")
	}
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	data := []byte("original")
	require.NoError(t, q.Publish(context.Background(), "s", data))
	data[0] = 'X'

	done, handler := collect(t, q, "s", 1)
	require.NoError(t, q.Subscribe("s", handler))
	select {
	case got := <-done:
		assert.Equal(t, "original", string(got[0]))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_PublishBatchAndPending(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	n, err := q.PublishBatch(context.Background(), []BatchMessage{
		{Subject: "a", Data: []byte("1")},
		{Subject: "a", Data: []byte("2")},
		{Subject: "b", Data: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, q.Pending("a"))
	assert.Equal(t, 1, q.Pending("b"))
	assert.Equal(t, 0, q.Pending("c"))
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	noop := func([]byte) error { return nil }
	require.NoError(t, q.Subscribe("s", noop))
	assert.ErrorIs(t, q.Subscribe("s", noop), ErrAlreadySubscribed)

	require.NoError(t, q.Unsubscribe("s"))
	assert.ErrorIs(t, q.Unsubscribe("s"), ErrNotSubscribed)

	// Resubscribing after unsubscribe works
	require.NoError(t, q.Subscribe("s", noop))
}

func TestMemoryQueue_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	defer func() { _ = q.Close() }()

	var mu sync.Mutex
	calls := 0
	second := make(chan struct{})
	require.NoError(t, q.Subscribe("s", func([]byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			close(second)
		}
		return errors.New("handler failed")
	}))

	require.NoError(t, q.Publish(context.Background(), "s", []byte("1")))
	require.NoError(t, q.Publish(context.Background(), "s", []byte("2")))

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer stopped after a handler error")
	}
}

func TestMemoryQueue_Close(t *testing.T) {
	q := newMemoryQueue(logging.NewNop())
	require.NoError(t, q.Subscribe("s", func([]byte) error { return nil }))
	require.NoError(t, Ping(context.Background(), q))
	require.NoError(t, q.Close())
	assert.ErrorIs(t, Ping(context.Background(), q), ErrClosed)
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Publish(context.Background(), "s", []byte("x")), ErrClosed)
}
