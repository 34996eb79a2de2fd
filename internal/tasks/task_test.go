package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Succeeds(t *testing.T) {
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (int, error) {
		report(0.5, "halfway")
		return 42, nil
	})
	require.NotEmpty(t, task.ID)

	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	status, progress := task.Status()
	assert.Equal(t, StatusSucceeded, status)
	assert.Equal(t, 1.0, progress)

	var events []Event
	for ev := range task.Events() {
		events = append(events, ev)
	}
	require.Len(t, events, 3)
	assert.Equal(t, StatusRunning, events[0].Status)
	assert.Equal(t, "halfway", events[1].Message)
	assert.Equal(t, 0.5, events[1].Progress)
	assert.Equal(t, StatusSucceeded, events[2].Status)
	assert.True(t, events[2].Status.Terminal())
}

func TestTask_Fails(t *testing.T) {
	boom := errors.New("boom")
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (string, error) {
		return "", boom
	})

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	status, _ := task.Status()
	assert.Equal(t, StatusFailed, status)
}

func TestTask_Cancel(t *testing.T) {
	started := make(chan struct{})
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	task.Cancel()
	task.Cancel()

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	status, _ := task.Status()
	assert.Equal(t, StatusCanceled, status)
}

func TestTask_WaitTimeoutLeavesTaskRunning(t *testing.T) {
	release := make(chan struct{})
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	status, _ := task.Status()
	assert.Equal(t, StatusRunning, status)

	close(release)
	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestTask_ProgressNeverDecreases(t *testing.T) {
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (int, error) {
		report(0.8, "")
		report(0.3, "")
		report(5, "")
		return 0, errors.New("stop")
	})
	<-task.Done()

	_, progress := task.Status()
	assert.Equal(t, 1.0, progress)
}

func TestTask_SlowConsumerDoesNotBlock(t *testing.T) {
	task := Start(context.Background(), func(ctx context.Context, report Reporter) (int, error) {
		for i := 0; i < eventBuffer*4; i++ {
			report(float64(i)/float64(eventBuffer*4), "tick")
		}
		return 7, nil
	})

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task blocked on unread events")
	}
	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
