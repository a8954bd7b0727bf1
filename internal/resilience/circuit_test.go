package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trippyBreaker(threshold int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:  threshold,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	})
}

func failing(err error) func(ctx context.Context) error {
	return func(ctx context.Context) error { return err }
}

func TestCircuitStaysClosedOnSuccess(t *testing.T) {
	t.Parallel()

	cb := trippyBreaker(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Execute(context.Background(), failing(nil)))
	}

	failures, state := cb.Counters()
	assert.Equal(t, 0, failures)
	assert.Equal(t, CircuitClosed, state)
}

func TestCircuitOpensAtThreshold(t *testing.T) {
	t.Parallel()

	cb := trippyBreaker(3)
	boom := NewTransientError(assert.AnError)

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), failing(boom))
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	// While open, calls are shed without running fn.
	var called bool
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitFailureCountResetsOnSuccess(t *testing.T) {
	t.Parallel()

	cb := trippyBreaker(3)
	boom := NewTransientError(assert.AnError)

	_ = cb.Execute(context.Background(), failing(boom))
	_ = cb.Execute(context.Background(), failing(boom))
	require.NoError(t, cb.Execute(context.Background(), failing(nil)))
	_ = cb.Execute(context.Background(), failing(boom))

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := trippyBreaker(1)
	cb.nowFunc = func() time.Time { return now }

	require.Error(t, cb.Execute(context.Background(), failing(NewTransientError(assert.AnError))))
	require.Equal(t, CircuitOpen, cb.State())

	// After the reset timeout a single successful probe closes the breaker.
	now = now.Add(31 * time.Second)
	require.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(context.Background(), failing(nil)))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := trippyBreaker(1)
	cb.nowFunc = func() time.Time { return now }
	boom := NewTransientError(assert.AnError)

	require.Error(t, cb.Execute(context.Background(), failing(boom)))
	now = now.Add(31 * time.Second)
	require.Error(t, cb.Execute(context.Background(), failing(boom)))

	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(context.Background(), failing(nil)), ErrCircuitOpen)
}

func TestCircuitDefaultShouldTripIgnoresPermanentErrors(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	// Permanent errors surface to the caller but never open the breaker.
	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), failing(assert.AnError))
		require.ErrorIs(t, err, assert.AnError)
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitExecuteVal(t *testing.T) {
	t.Parallel()

	cb := trippyBreaker(1)

	got, err := ExecuteVal(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	require.Error(t, cb.Execute(context.Background(), failing(NewTransientError(assert.AnError))))
	got, err = ExecuteVal(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, got)
}

func TestCircuitReset(t *testing.T) {
	t.Parallel()

	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	require.Error(t, cb.Execute(context.Background(), failing(NewTransientError(assert.AnError))))
	cb.Reset()

	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, []string{"closed>open", "open>closed"}, transitions)
}
