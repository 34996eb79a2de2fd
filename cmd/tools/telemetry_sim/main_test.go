package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/queue"
	"github.com/aerolens/aerolens/internal/telemetry"
)

type recordingPublisher struct {
	messages []queue.BatchMessage
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.messages = append(p.messages, queue.BatchMessage{Subject: subject, Data: data})
	return nil
}

func (p *recordingPublisher) PublishBatch(_ context.Context, messages []queue.BatchMessage) (int, error) {
	p.messages = append(p.messages, messages...)
	return len(messages), nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestRun_PublishesEveryMetric(t *testing.T) {
	ingest := config.DefaultConfig().Ingest
	pub := &recordingPublisher{}
	cfg := SimConfig{Drones: 2, Frames: 3, Interval: time.Second, Pace: time.Millisecond, Seed: 4}

	published, _ := run(context.Background(), cfg, ingest, pub, logging.NewNop())

	want := 2 * 3 * len(telemetry.Metrics())
	assert.Equal(t, want, published)
	require.Len(t, pub.messages, want)

	codec := queue.NewCodec(ingest.Compression)
	var first struct {
		DroneID string `json:"drone_id"`
		Metric  string `json:"metric"`
	}
	require.NoError(t, codec.Unmarshal(pub.messages[0].Data, &first))
	assert.Equal(t, "drone-001", first.DroneID)
	assert.Equal(t, telemetry.MetricBattery, first.Metric)
	assert.Equal(t, ingest.Subject, pub.messages[0].Subject)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &recordingPublisher{}
	cfg := SimConfig{Drones: 1, Frames: 0, Interval: time.Second, Pace: time.Hour}
	published, _ := run(ctx, cfg, config.DefaultConfig().Ingest, pub, logging.NewNop())

	assert.Equal(t, len(telemetry.Metrics()), published, "one frame is published before the cancel is seen")
}
