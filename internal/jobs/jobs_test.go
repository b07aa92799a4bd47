package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/internal/testutil"
)

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "test"}, testutil.NewTestLogger(), func(context.Context) error { return nil })
	assert.Equal(t, 30*time.Second, w.config.Interval)
	assert.False(t, w.IsRunning())
}

func TestWorkerRunsPeriodically(t *testing.T) {
	var calls atomic.Int32
	w := NewWorker(WorkerConfig{Name: "tick", Interval: 10 * time.Millisecond}, testutil.NewTestLogger(),
		func(context.Context) error {
			if calls.Add(1)%2 == 0 {
				return errors.New("every other pass fails")
			}
			return nil
		})

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	require.NoError(t, w.Start(context.Background()), "second start is a no-op")

	assert.Eventually(t, func() bool { return calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, w.IsRunning())

	m := w.Metrics()
	assert.GreaterOrEqual(t, m.Runs, int64(4))
	assert.GreaterOrEqual(t, m.Failed, int64(2))

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no passes after stop")
}

func TestWorkerRunOnStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	w := NewWorker(WorkerConfig{Name: "once", Interval: time.Hour, RunOnStart: true}, testutil.NewTestLogger(),
		func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("work function did not run on start")
	}
}

func TestStopWithoutStart(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "idle"}, testutil.NewTestLogger(), func(context.Context) error { return nil })
	assert.NoError(t, w.Stop(context.Background()))
}
