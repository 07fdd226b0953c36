package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intervalSchedule time.Duration

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(s))
}

type neverSchedule struct{}

func (neverSchedule) Next(time.Time) time.Time { return time.Time{} }

type countingRunner struct {
	runs    atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
	block   chan struct{}
	started chan struct{}
	err     error
}

func (r *countingRunner) RunAll(ctx context.Context) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	r.runs.Add(1)

	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.block != nil {
		<-r.block
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runAsync(s *Scheduler, ctx context.Context, runAtStartup bool) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, runAtStartup) }()
	return errCh
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "hourly", expr: "0 * * * *"},
		{name: "every five minutes", expr: "*/5 * * * *"},
		{name: "descriptor", expr: "@daily"},
		{name: "time zone", expr: "CRON_TZ=UTC 0 3 * * *"},
		{name: "empty", expr: "", wantErr: true},
		{name: "garbage", expr: "not a schedule", wantErr: true},
		{name: "six fields", expr: "0 0 * * * *", wantErr: true},
		{name: "out of range", expr: "61 * * * *", wantErr: true},
		{name: "february 30th never fires", expr: "0 0 30 2 *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := ParseSchedule(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, schedule)
		})
	}
}

func TestParseScheduleNextFire(t *testing.T) {
	schedule, err := ParseSchedule("0 * * * *")
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), schedule.Next(from))
}

func TestRunAtStartup(t *testing.T) {
	runner := &countingRunner{started: make(chan struct{}, 1)}
	s := New(intervalSchedule(time.Hour), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, true)

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("startup run did not happen")
	}

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), runner.runs.Load())
	assert.Equal(t, StateStopping, s.State())
}

func TestNoRunAtStartupWaitsForTrigger(t *testing.T) {
	runner := &countingRunner{}
	s := New(intervalSchedule(time.Hour), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, false)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, s.State())
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(0), runner.runs.Load())
}

func TestTriggersRepeatedly(t *testing.T) {
	runner := &countingRunner{}
	s := New(intervalSchedule(10*time.Millisecond), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, false)

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestRunErrorsDoNotStopSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("1 jobs failed")}
	s := New(intervalSchedule(10*time.Millisecond), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, true)

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestRunsNeverOverlap(t *testing.T) {
	runner := &countingRunner{delay: 60 * time.Millisecond}
	s := New(intervalSchedule(5*time.Millisecond), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, true)

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Eventually(t, func() bool { return runner.active.Load() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runner.maxSeen.Load())
}

func TestCancelDuringRunReturnsPromptly(t *testing.T) {
	runner := &countingRunner{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	defer close(runner.block)

	s := New(intervalSchedule(time.Hour), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(s, ctx, true)

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
	assert.Equal(t, StateRunning, s.State())

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler waited for the in-flight run")
	}
	assert.Equal(t, StateStopping, s.State())
}

func TestRunWithCancelledContext(t *testing.T) {
	runner := &countingRunner{}
	s := New(intervalSchedule(time.Millisecond), runner, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx, true))
	assert.Equal(t, int32(0), runner.runs.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestScheduleWithoutFutureTriggerNeverRuns(t *testing.T) {
	runner := &countingRunner{}
	s := New(neverSchedule{}, runner, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx, false))
	assert.Equal(t, int32(0), runner.runs.Load())
}

func TestScheduleWithoutFutureTriggerStillRunsAtStartup(t *testing.T) {
	runner := &countingRunner{}
	s := New(neverSchedule{}, runner, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx, true))
	assert.Equal(t, int32(1), runner.runs.Load())
}
