package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
)

// blockingOrchestrator holds each Run open until released, so tests can
// observe the in-flight state deterministically.
type blockingOrchestrator struct {
	mu      sync.Mutex
	runs    int
	started chan struct{}
	release chan struct{}
}

func newBlockingOrchestrator() *blockingOrchestrator {
	return &blockingOrchestrator{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingOrchestrator) Run(ctx context.Context) *models.RunResult {
	b.mu.Lock()
	b.runs++
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
	return &models.RunResult{RunID: "run-1"}
}

func (b *blockingOrchestrator) runCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

func TestService_TriggerNowSkipsWhileRunInFlight(t *testing.T) {
	orch := newBlockingOrchestrator()
	svc := NewService(orch, arbor.NewLogger()).(*Service)

	require.True(t, svc.TriggerNow(), "first trigger should start a run")
	<-orch.started

	// Guard is held by the in-flight run; further triggers are no-ops.
	assert.False(t, svc.TriggerNow())
	assert.False(t, svc.TriggerNow())

	close(orch.release)

	// Wait for the guard to clear, then a new trigger works again.
	require.Eventually(t, func() bool {
		return !svc.Status().Processing
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, orch.runCount(), "skipped triggers must not queue runs")
	assert.Equal(t, 2, svc.Status().SkippedRuns)

	// release is already closed, so the second run returns immediately.
	require.True(t, svc.TriggerNow())
	<-orch.started
	require.Eventually(t, func() bool {
		return orch.runCount() == 2 && !svc.Status().Processing
	}, time.Second, 5*time.Millisecond)
}

func TestService_StartAndStopLifecycle(t *testing.T) {
	orch := newBlockingOrchestrator()
	close(orch.release) // runs return immediately

	svc := NewService(orch, arbor.NewLogger(),
		WithInterval(time.Hour),
		WithStartupDelay(time.Hour), // keep timers from firing during the test
	).(*Service)

	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	assert.Error(t, svc.Start(), "double start should be rejected")

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	assert.NoError(t, svc.Stop(), "stop is idempotent")

	assert.Zero(t, orch.runCount(), "no run should fire before the startup delay")
}

func TestService_StartupRunFiresAfterDelay(t *testing.T) {
	orch := newBlockingOrchestrator()
	close(orch.release)

	svc := NewService(orch, arbor.NewLogger(),
		WithInterval(time.Hour),
		WithStartupDelay(10*time.Millisecond),
	).(*Service)

	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Stop() })

	require.Eventually(t, func() bool {
		return orch.runCount() == 1
	}, time.Second, 5*time.Millisecond, "startup run should fire once after the delay")

	status := svc.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "run-1", status.LastRunID)
}

func TestService_StatusReflectsConfiguration(t *testing.T) {
	svc := NewService(newBlockingOrchestrator(), arbor.NewLogger(),
		WithInterval(15*time.Minute),
	).(*Service)

	status := svc.Status()
	assert.False(t, status.Running)
	assert.False(t, status.Processing)
	assert.Equal(t, "15m0s", status.Interval)
	assert.Nil(t, status.LastRun)
	assert.Zero(t, status.SkippedRuns)
}

func TestService_PanickingRunReleasesGuard(t *testing.T) {
	svc := NewService(&panickingOrchestrator{}, arbor.NewLogger()).(*Service)

	require.True(t, svc.TriggerNow())

	require.Eventually(t, func() bool {
		return !svc.Status().Processing
	}, time.Second, 5*time.Millisecond, "guard must clear after a panicking run")

	assert.True(t, svc.TriggerNow(), "scheduler should accept triggers again")
}

type panickingOrchestrator struct{}

func (p *panickingOrchestrator) Run(ctx context.Context) *models.RunResult {
	panic("scraper blew up")
}
