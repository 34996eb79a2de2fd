package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/queue"
)

func testIngestConfig() config.IngestConfig {
	cfg := config.DefaultConfig().Ingest
	cfg.Enabled = true
	cfg.WindowSize = 20
	cfg.MinPoints = 5
	return cfg
}

func newTestQueue(t *testing.T) queue.Queue {
	t.Helper()
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func telemetry(i int, value float64) *models.TelemetryMessage {
	return &models.TelemetryMessage{
		DroneID:   "drone-1",
		Metric:    "motor_temp",
		Timestamp: testStart.Add(time.Duration(i) * time.Second),
		Value:     value,
	}
}

func TestIngestService_Process(t *testing.T) {
	q := newTestQueue(t)
	svc := NewIngestService(logging.NewNop(), testIngestConfig(), q)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		outcome, err := svc.Process(ctx, telemetry(i, 40))
		require.NoError(t, err)
		if i < 4 {
			assert.Equal(t, IngestWarming, outcome, "point %d", i)
		} else {
			assert.Equal(t, IngestAccepted, outcome, "point %d", i)
		}
	}

	outcome, err := svc.Process(ctx, telemetry(10, 120))
	require.NoError(t, err)
	assert.Equal(t, IngestAnomalous, outcome)

	outcome, err = svc.Process(ctx, telemetry(3, 40))
	require.NoError(t, err)
	assert.Equal(t, IngestStale, outcome)

	assert.Equal(t, 1, svc.Windows())
}

func TestIngestService_PublishesAnomalyEvents(t *testing.T) {
	q := newTestQueue(t)
	cfg := testIngestConfig()
	svc := NewIngestService(logging.NewNop(), cfg, q)

	events := make(chan models.AnomalyEvent, 1)
	codec := queue.NewCodec(cfg.Compression)
	require.NoError(t, q.Subscribe(cfg.AnomalySubject, func(data []byte) error {
		var ev models.AnomalyEvent
		if err := codec.Unmarshal(data, &ev); err != nil {
			return err
		}
		events <- ev
		return nil
	}))

	require.NoError(t, svc.Start())
	defer func() { _ = svc.Stop() }()

	for i := 0; i < 10; i++ {
		payload, err := codec.Marshal(telemetry(i, 40))
		require.NoError(t, err)
		require.NoError(t, q.Publish(context.Background(), cfg.Subject, payload))
	}
	payload, err := codec.Marshal(telemetry(10, 120))
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), cfg.Subject, payload))

	select {
	case ev := <-events:
		assert.Equal(t, "drone-1", ev.DroneID)
		assert.Equal(t, "motor_temp", ev.Metric)
		assert.Equal(t, 120.0, ev.Value)
		assert.Equal(t, "spike", ev.Type)
		assert.Equal(t, 11, ev.WindowSize)
		assert.NotEmpty(t, ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no anomaly event published")
	}
}

func TestIngestService_WindowIsBounded(t *testing.T) {
	cfg := testIngestConfig()
	cfg.WindowSize = 5
	svc := NewIngestService(logging.NewNop(), cfg, newTestQueue(t))

	for i := 0; i < 12; i++ {
		_, err := svc.Process(context.Background(), telemetry(i, float64(40+i%2)))
		require.NoError(t, err)
	}
	window := svc.windows[windowKey{drone: "drone-1", metric: "motor_temp"}].series
	assert.Len(t, window, 5)
	assert.Equal(t, testStart.Add(11*time.Second), window[4].Time)
}

func TestIngestService_HandleDropsPoisonMessages(t *testing.T) {
	svc := NewIngestService(logging.NewNop(), testIngestConfig(), newTestQueue(t))

	assert.NoError(t, svc.Handle([]byte("not an envelope")))

	payload, err := queue.NewCodec(false).Marshal(models.TelemetryMessage{Metric: "battery"})
	require.NoError(t, err)
	assert.NoError(t, svc.Handle(payload))
	assert.Equal(t, 0, svc.Windows())
}

// flakyQueue fails Publish while failures remain, then delegates
type flakyQueue struct {
	queue.Queue
	failures  atomic.Int32
	published atomic.Int32
}

func (q *flakyQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if q.failures.Add(-1) >= 0 {
		return errors.New("broker down")
	}
	q.published.Add(1)
	return q.Queue.Publish(ctx, subject, data)
}

func TestIngestService_RedeliveryAfterFailedPublish(t *testing.T) {
	q := &flakyQueue{Queue: newTestQueue(t)}
	q.failures.Store(1)
	svc := NewIngestService(logging.NewNop(), testIngestConfig(), q)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Process(ctx, telemetry(i, 40))
		require.NoError(t, err)
	}

	outcome, err := svc.Process(ctx, telemetry(10, 120))
	require.Error(t, err)
	assert.Equal(t, IngestAnomalous, outcome)

	// The broker hands the same message back
	outcome, err = svc.Process(ctx, telemetry(10, 120))
	require.NoError(t, err)
	assert.Equal(t, IngestAnomalous, outcome)
	assert.EqualValues(t, 1, q.published.Load())

	window := svc.windows[windowKey{drone: "drone-1", metric: "motor_temp"}].series
	assert.Len(t, window, 11)
	assert.Equal(t, 40.0, window[9].Value)
	assert.Equal(t, 120.0, window[10].Value)
}

func TestIngestService_SameTimestampNewValueIsAppended(t *testing.T) {
	svc := NewIngestService(logging.NewNop(), testIngestConfig(), newTestQueue(t))
	ctx := context.Background()

	_, err := svc.Process(ctx, telemetry(0, 40))
	require.NoError(t, err)
	_, err = svc.Process(ctx, telemetry(0, 41))
	require.NoError(t, err)

	assert.Len(t, svc.windows[windowKey{drone: "drone-1", metric: "motor_temp"}].series, 2)
}

func TestIngestService_EvictsIdleWindows(t *testing.T) {
	cfg := testIngestConfig()
	cfg.IdleTTL = time.Minute
	svc := NewIngestService(logging.NewNop(), cfg, newTestQueue(t))

	clock := testStart
	svc.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := svc.Process(ctx, telemetry(0, 40))
	require.NoError(t, err)

	clock = clock.Add(45 * time.Second)
	other := telemetry(0, 12)
	other.DroneID = "drone-2"
	_, err = svc.Process(ctx, other)
	require.NoError(t, err)
	require.Equal(t, 2, svc.Windows())

	assert.Equal(t, 0, svc.Evict(clock.Add(15*time.Second)))
	assert.Equal(t, 1, svc.Evict(clock.Add(15*time.Second+time.Millisecond)))
	assert.Equal(t, 1, svc.Windows())
	assert.Equal(t, 1, svc.Evict(clock.Add(2*time.Minute)))
	assert.Equal(t, 0, svc.Windows())

	cfg.IdleTTL = 0
	keep := NewIngestService(logging.NewNop(), cfg, newTestQueue(t))
	_, err = keep.Process(ctx, telemetry(0, 40))
	require.NoError(t, err)
	assert.Equal(t, 0, keep.Evict(testStart.Add(24*time.Hour)))
}
