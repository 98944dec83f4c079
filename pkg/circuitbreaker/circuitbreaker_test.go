package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Millisecond,
		HalfOpenMaxRequests: 2,
	}
}

func fail(cb *CircuitBreaker) error { return cb.Execute(func() error { return errBoom }) }
func ok(cb *CircuitBreaker) error   { return cb.Execute(func() error { return nil }) }

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(fastConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	// 打开后直接拒绝，不再执行函数
	executed := false
	err := cb.Execute(func() error {
		executed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, executed)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(fastConfig())

	require.Error(t, fail(cb))
	require.Error(t, fail(cb))
	require.NoError(t, ok(cb))
	require.Error(t, fail(cb))
	require.Error(t, fail(cb))

	assert.Equal(t, StateClosed, cb.GetState(), "non-consecutive failures never open")
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New(fastConfig())
	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(40 * time.Millisecond)

	require.NoError(t, ok(cb))
	assert.Equal(t, StateHalfOpen, cb.GetState())
	require.NoError(t, ok(cb))
	assert.Equal(t, StateClosed, cb.GetState(), "two successes close the breaker")
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(fastConfig())
	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}

	time.Sleep(40 * time.Millisecond)

	require.ErrorIs(t, fail(cb), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestReset(t *testing.T) {
	cb := New(fastConfig())
	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, ok(cb))
}
