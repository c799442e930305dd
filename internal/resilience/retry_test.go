package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("flaky"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls++
		return 0, eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("still down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetry(10), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(eris.New("down"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	err := Do(context.Background(), cfg, func(context.Context) error {
		return NewTransientError(eris.New("down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 503)))
	assert.True(t, IsTransient(eris.Wrap(NewTransientError(eris.New("x"), 0), "outer")))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.False(t, IsTransient(nil))
}
