package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

type countingService struct {
	passes atomic.Int64
}

func (s *countingService) Register(context.Context, int64, string) error { return nil }
func (s *countingService) RefreshUser(context.Context, int64) error      { return nil }
func (s *countingService) ListAll(context.Context) ([]*domain.TrackedPackage, error) {
	return nil, nil
}
func (s *countingService) RefreshAll(context.Context) error {
	s.passes.Add(1)
	return nil
}

func TestScheduler_RunsImmediatelyAndPeriodically(t *testing.T) {
	svc := &countingService{}
	sched := New(svc, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for svc.passes.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 passes, got %d", svc.passes.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop on context cancellation")
	}
}

func TestScheduler_DefaultInterval(t *testing.T) {
	sched := New(&countingService{}, 0, zerolog.Nop())
	if sched.interval != DefaultInterval {
		t.Fatalf("expected default interval, got %v", sched.interval)
	}
}
