package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry is the default schedule with sleeps shrunk for tests.
func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestDoVal_SucceedsFirstTry(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("boom"), 503)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(), func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("always down"), 502)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(), func(context.Context) (int, error) {
		calls++
		return 0, eris.New("bad request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetryAllRetriesEverything(t *testing.T) {
	cfg := fastRetry()
	cfg.ShouldRetry = RetryAll

	calls := 0
	_, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, eris.New("parse failure")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := fastRetry()
	cfg.ShouldRetry = RetryAll
	_, err := DoVal(ctx, cfg, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, eris.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_WrapsDoVal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(), func(context.Context) error {
		calls++
		if calls == 1 {
			return NewTransientError(eris.New("flaky"), 429)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestComputeBackoff_Schedule(t *testing.T) {
	cfg := applyDefaults(DefaultRetryConfig())

	// 1s, 2s, capped growth.
	assert.Equal(t, 1*time.Second, computeBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, computeBackoff(1, cfg))
	assert.Equal(t, 4*time.Second, computeBackoff(2, cfg))
	assert.Equal(t, cfg.MaxBackoff, computeBackoff(20, cfg))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 500)))
	assert.True(t, IsTransient(eris.Wrap(NewTransientError(eris.New("x"), 429), "outer")))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
