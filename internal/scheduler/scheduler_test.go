package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestScheduler(jobs ...*job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		metrics: metrics.NewForTest(prometheus.NewRegistry()),
		logger:  zap.NewNop(),
	}
}

func TestRunGuardedSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs int

	j := &job{
		name:     "slow",
		interval: time.Hour,
		run: func(_ context.Context) error {
			runs++
			close(started)
			<-release
			return nil
		},
	}
	s := newTestScheduler(j)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runGuarded(context.Background(), j)
	}()

	// A tick firing while the first run is still executing is a no-op.
	<-started
	s.runGuarded(context.Background(), j)
	assert.Equal(t, 1, runs)

	close(release)
	wg.Wait()

	// Once the first run finished, the next tick runs again.
	release = make(chan struct{})
	started = make(chan struct{})
	go func() {
		<-started
		close(release)
	}()
	s.runGuarded(context.Background(), j)
	assert.Equal(t, 2, runs)
}

func TestRunGuardedReleasesGuardAfterError(t *testing.T) {
	var runs int
	j := &job{
		name:     "failing",
		interval: time.Hour,
		run: func(_ context.Context) error {
			runs++
			return assert.AnError
		},
	}
	s := newTestScheduler(j)

	s.runGuarded(context.Background(), j)
	s.runGuarded(context.Background(), j)
	assert.Equal(t, 2, runs, "a failed run must not keep the guard held")
}

func TestStartStop(t *testing.T) {
	done := make(chan struct{}, 1)
	j := &job{
		name:     "tick",
		interval: 10 * time.Millisecond,
		run: func(_ context.Context) error {
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	}
	s := newTestScheduler(j)

	s.Start()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	s.Stop()
}
