package controller

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRejectsInvalidExpression(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)
	assert.Error(t, s.Schedule("not a cron expression"))
}

func TestSchedulerAcceptsDescriptor(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)
	require.NoError(t, s.Schedule("@every 2m"))

	nextRun, running := s.Status()
	assert.False(t, running)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), nextRun, 5*time.Second)
}

func TestSchedulerRunsTask(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func() error {
		calls.Add(1)
		return nil
	}, nil)
	defer s.Stop()

	require.NoError(t, s.Schedule("@every 1s"))
	s.Start()

	_, running := s.Status()
	assert.True(t, running)

	deadline := time.After(5 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("task never ran")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestSchedulerNilTaskPanics(t *testing.T) {
	assert.Panics(t, func() { NewScheduler(nil, nil) })
}
