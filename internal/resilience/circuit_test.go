package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_ClosedStatePassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	var calls int
	err := cb.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("boom")
		})
	}
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error {
		t.Fatal("must not be called while the circuit is open")
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	})

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("boom")
		})
	}
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error {
		return nil
	}))

	failures, state := cb.Counters()
	assert.Zero(t, failures)
	assert.Equal(t, CircuitClosed, state)
}

func TestCircuitBreaker_HalfOpenProbeClosesCircuit(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     100 * time.Millisecond,
	})
	cb.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("boom")
		})
	}
	require.Equal(t, CircuitOpen, cb.State())

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error {
		return nil
	}))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     100 * time.Millisecond,
	})
	cb.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("boom")
		})
	}

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	_ = cb.Execute(context.Background(), func(context.Context) error {
		return errors.New("still down")
	})

	_, state := cb.Counters()
	assert.Equal(t, CircuitOpen, state)
}

func TestCircuitBreaker_ShouldTripFiltersErrors(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Permanent errors never open the circuit.
	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("bad request")
		})
	}
	assert.Equal(t, CircuitClosed, cb.State())

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return NewTransientError(errors.New("unavailable"), 503)
		})
	}
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	_ = cb.Execute(context.Background(), func(context.Context) error {
		return errors.New("boom")
	})
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal_ReturnsValueAndOpenError(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	val, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)

	_ = cb.Execute(context.Background(), func(context.Context) error {
		return errors.New("boom")
	})

	val, err = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 42, nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, val)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(99).String())
}
