package middleware_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/wholesale-backoffice/api-gateway/middleware"
)

var errUpstream = errors.New("upstream failure")

func failing() error { return errUpstream }
func ok() error      { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := middleware.NewCircuitBreaker("backoffice", 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Call(failing), errUpstream)
	}
	assert.Equal(t, middleware.StateOpen, cb.GetState())

	// Open circuit rejects without invoking fn
	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.Error(t, err)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := middleware.NewCircuitBreaker("backoffice", 3, time.Minute)

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	require.NoError(t, cb.Call(ok))
	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))

	assert.Equal(t, middleware.StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := middleware.NewCircuitBreaker("backoffice", 1, 10*time.Millisecond)

	require.Error(t, cb.Call(failing))
	require.Equal(t, middleware.StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)

	// Three consecutive successes in half-open close the circuit
	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Call(ok))
	}
	assert.Equal(t, middleware.StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := middleware.NewCircuitBreaker("backoffice", 1, 10*time.Millisecond)

	require.Error(t, cb.Call(failing))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Call(ok))
	require.Error(t, cb.Call(failing))

	assert.Equal(t, middleware.StateOpen, cb.GetState())
}

func TestCircuitBreakerManager_ReusesBreakers(t *testing.T) {
	manager := middleware.NewCircuitBreakerManager()

	first := manager.GetOrCreate("backoffice")
	second := manager.GetOrCreate("backoffice")
	assert.Same(t, first, second)

	stats := manager.GetAllStats()
	assert.Contains(t, stats, "backoffice")
}
