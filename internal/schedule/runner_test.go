package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KNICEX/stock-alert/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const waitFor = 2 * time.Second

func startRunner(t *testing.T, task Task, interval time.Duration, opts ...RunnerOption) (*clock.Fake, context.CancelFunc, <-chan error) {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := NewRunner(task, interval, append([]RunnerOption{WithRunnerClock(fake)}, opts...)...)
	go func() {
		done <- r.Start(ctx)
	}()
	t.Cleanup(cancel)
	return fake, cancel, done
}

func TestRunner_TicksOnInterval(t *testing.T) {
	var runs atomic.Int32
	task := TaskFunc{TaskName: "count", Fn: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}
	fake, cancel, done := startRunner(t, task, time.Minute)

	require.True(t, fake.BlockUntil(1, waitFor))
	assert.Equal(t, int32(1), runs.Load(), "first tick runs immediately")

	fake.Advance(30 * time.Second)
	assert.Equal(t, int32(1), runs.Load())

	fake.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, waitFor, time.Millisecond)
	require.True(t, fake.BlockUntil(1, waitFor))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, int32(2), runs.Load())
}

func TestRunner_NoOverlap(t *testing.T) {
	var running, maxRunning, runs atomic.Int32
	release := make(chan struct{})
	task := TaskFunc{TaskName: "slow", Fn: func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		if runs.Add(1) == 1 {
			<-release
		}
		return nil
	}}
	fake, _, _ := startRunner(t, task, time.Minute)

	require.Eventually(t, func() bool { return runs.Load() == 1 }, waitFor, time.Millisecond)
	// the slow tick holds the loop; elapsed intervals do not start new ticks
	for i := 0; i < 5; i++ {
		fake.Advance(time.Minute)
	}
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, 0, fake.Waiters())

	close(release)
	require.True(t, fake.BlockUntil(1, waitFor))
	fake.Advance(time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestRunner_SurvivesFailures(t *testing.T) {
	var runs atomic.Int32
	task := TaskFunc{TaskName: "flaky", Fn: func(ctx context.Context) error {
		switch runs.Add(1) {
		case 1:
			panic("boom")
		case 2:
			return errors.New("store unavailable")
		}
		return nil
	}}
	core, logs := observer.New(zapcore.InfoLevel)
	fake, _, _ := startRunner(t, task, time.Minute, WithRunnerLogger(zap.New(core)))

	for want := int32(1); want <= 3; want++ {
		require.True(t, fake.BlockUntil(1, waitFor))
		require.Equal(t, want, runs.Load())
		fake.Advance(time.Minute)
	}
	require.Eventually(t, func() bool { return runs.Load() == 4 }, waitFor, time.Millisecond)

	assert.Equal(t, 1, logs.FilterMessage("task panicked").Len())
	failed := logs.FilterMessage("task failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "flaky", failed[0].ContextMap()["task"])
}

func TestRunner_StopFinishesRunningTick(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var tickErr atomic.Value
	task := TaskFunc{TaskName: "long", Fn: func(ctx context.Context) error {
		close(started)
		<-release
		tickErr.Store(fmt.Sprint(ctx.Err()))
		return nil
	}}
	_, cancel, done := startRunner(t, task, time.Minute)

	<-started
	cancel()
	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, "<nil>", tickErr.Load())
}

func TestRunner_StopsBeforeFirstTickWhenCancelled(t *testing.T) {
	var runs atomic.Int32
	task := TaskFunc{TaskName: "count", Fn: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(task, time.Minute, WithRunnerClock(clock.NewFake(time.Now()))).Start(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int32(0), runs.Load())
}

func TestRunner_InvalidInterval(t *testing.T) {
	task := TaskFunc{TaskName: "noop", Fn: func(ctx context.Context) error { return nil }}
	err := NewRunner(task, 0).Start(context.Background())
	assert.Error(t, err)
}
