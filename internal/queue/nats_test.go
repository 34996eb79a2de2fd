package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerolens/aerolens/internal/logging"
)

// startNATS runs an embedded JetStream server for the test
func startNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNATSQueue_PublishSubscribe(t *testing.T) {
	url := startNATS(t)
	q, err := newNATSQueue(url, "", "", logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()
	require.NoError(t, Ping(context.Background(), q))

	received := make(chan []byte, 4)
	require.NoError(t, q.Subscribe("telemetry.observations", func(data []byte) error {
		received <- data
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "telemetry.observations", []byte("frame-1")))

	select {
	case got := <-received:
		assert.Equal(t, "frame-1", string(got))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	assert.ErrorIs(t, q.Subscribe("telemetry.observations", func([]byte) error { return nil }), ErrAlreadySubscribed)
	require.NoError(t, q.Unsubscribe("telemetry.observations"))
	assert.ErrorIs(t, q.Unsubscribe("telemetry.observations"), ErrNotSubscribed)
}

func TestNATSQueue_PublishBatch(t *testing.T) {
	url := startNATS(t)
	q, err := newNATSQueue(url, "", "", logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	var count atomic.Int32
	require.NoError(t, q.Subscribe("analytics.anomalies", func([]byte) error {
		count.Add(1)
		return nil
	}))

	batch := make([]BatchMessage, 10)
	for i := range batch {
		batch[i] = BatchMessage{Subject: "analytics.anomalies", Data: []byte{byte(i)}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := q.PublishBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	assert.Eventually(t, func() bool { return count.Load() == 10 }, 5*time.Second, 20*time.Millisecond)

	n, err = q.PublishBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNATSQueue_InvalidURL(t *testing.T) {
	_, err := newNATSQueue("nats://127.0.0.1:1", "", "", logging.NewNop())
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "telemetry_observations", sanitizeName("telemetry.observations"))
	assert.Equal(t, "aerolens-analytics_anomalies", streamName("analytics.anomalies"))
	assert.Equal(t, "a_b_c-d", sanitizeName("a*b>c-d"))
}
