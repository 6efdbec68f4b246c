package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealthAggregatesComponents(t *testing.T) {
	checker := NewHealthChecker("test")
	checker.RegisterCheck("up", NewFuncChecker("up", time.Second, func(ctx context.Context) error {
		return nil
	}))
	checker.RegisterCheck("down", NewFuncChecker("down", time.Second, func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	status := checker.CheckHealth(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, 2, status.Summary.TotalComponents)
	assert.Equal(t, 1, status.Summary.HealthyComponents)
	assert.Equal(t, 1, status.Summary.UnhealthyComponents)
	assert.Equal(t, "unhealthy", status.Components["down"].Status)
	assert.Equal(t, "connection refused", status.Components["down"].Error)
}

func TestGetComponentStatusUnknownBeforeFirstCheck(t *testing.T) {
	checker := NewHealthChecker("test")
	checker.RegisterCheck("postgres", NewFuncChecker("postgres", time.Second, func(ctx context.Context) error {
		return nil
	}))

	status := checker.GetComponentStatus("postgres")
	require.NotNil(t, status)
	assert.Equal(t, "unknown", status.Status)

	assert.Nil(t, checker.GetComponentStatus("unregistered"))
}

func TestPeriodicChecksRefreshComponentStatus(t *testing.T) {
	var calls atomic.Int32
	checker := NewHealthChecker("test")
	checker.RegisterCheck("redis", NewFuncChecker("redis", time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}))

	checker.StartPeriodicChecks(5 * time.Millisecond)
	defer checker.StopPeriodicChecks()

	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Positive(t, calls.Load(), "periodic check never fired")

	status := checker.GetComponentStatus("redis")
	require.NotNil(t, status)
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.LastChecked.IsZero())
}

func TestStopPeriodicChecksHaltsTicker(t *testing.T) {
	var calls atomic.Int32
	checker := NewHealthChecker("test")
	checker.RegisterCheck("broker", NewFuncChecker("broker", time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}))

	checker.StartPeriodicChecks(5 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	checker.StopPeriodicChecks()

	// A tick already buffered at stop time may still run once.
	time.Sleep(15 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}
