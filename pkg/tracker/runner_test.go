package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Ticks(t *testing.T) {
	s, clock, disp := newTestSession(t, newTestStore(t))
	ctx := context.Background()
	require.NoError(t, s.SetAlertsEnabled(ctx, true))

	_, err := s.Add(ctx, "Main base", stoneAndMetal)
	require.NoError(t, err)
	clock.Advance(47 * time.Hour)

	r := tracker.NewRunner(s, tracker.RunnerConfig{AlertInterval: 5 * time.Millisecond}, testLogger())

	r.Start(ctx)
	assert.Eventually(t, func() bool {
		return disp.Len() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	// Repeated ticks in the same cycle never alert again
	assert.Equal(t, 1, disp.Len())
}

func TestRunner_StopsWithParentContext(t *testing.T) {
	s, _, _ := newTestSession(t, newTestStore(t))
	ctx, cancel := context.WithCancel(context.Background())

	r := tracker.NewRunner(s, tracker.DefaultRunnerConfig(), testLogger())
	r.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestDefaultRunnerConfig(t *testing.T) {
	cfg := tracker.DefaultRunnerConfig()
	assert.Equal(t, 10*time.Second, cfg.AlertInterval)
}
