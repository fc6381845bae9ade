//go:build !integration

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow-cli/internal/pipeline"
)

func TestScheduleLoop_CeilingStopsImmediately(t *testing.T) {
	calls := 0
	err := scheduleLoop(context.Background(), time.Millisecond, func(ctx context.Context) (*pipeline.Summary, error) {
		calls++
		return &pipeline.Summary{Sent: 2, LimitReached: true}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "no further batches once the ceiling trips")
}

func TestScheduleLoop_CeilingStopsOnTick(t *testing.T) {
	// The first batch stays under the ceiling, the second trips it. The
	// loop must exit instead of running a third batch on the next tick.
	calls := 0
	err := scheduleLoop(context.Background(), time.Millisecond, func(ctx context.Context) (*pipeline.Summary, error) {
		calls++
		return &pipeline.Summary{Sent: 2, LimitReached: calls == 2}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestScheduleLoop_BatchErrorKeepsTicking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := scheduleLoop(ctx, time.Millisecond, func(ctx context.Context) (*pipeline.Summary, error) {
		calls++
		if calls >= 3 {
			cancel()
		}
		return nil, errors.New("leads file unreadable")
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 3, "errors are logged, not fatal")
}

func TestScheduleLoop_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scheduleLoop(ctx, time.Hour, func(ctx context.Context) (*pipeline.Summary, error) {
		return &pipeline.Summary{}, nil
	})
	require.NoError(t, err)
}

func TestScheduleLoop_CeilingStopsScheduler(t *testing.T) {
	// Three sendable leads with a ceiling of two: the first batch trips
	// the ceiling after two sends and the scheduler exits, so the third
	// lead gets no email until a human reruns the process.
	llm := hotModelScript(3)
	sender := &captureSender{}
	env := newTestEnv(t, llm, sender, 2, 3)

	err := scheduleLoop(context.Background(), time.Millisecond, func(ctx context.Context) (*pipeline.Summary, error) {
		return runBatch(ctx, env)
	})
	require.NoError(t, err)

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, 4, llm.calls, "two model round trips per processed lead, none after the stop")
}
