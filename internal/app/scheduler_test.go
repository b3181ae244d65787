package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAllTemplates(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestSchedulerDisabledReturnsImmediately(t *testing.T) {
	refresher := &countingRefresher{}
	scheduler := NewScheduler(refresher, 0, zap.NewNop())

	if err := scheduler.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if refresher.calls.Load() != 0 {
		t.Fatalf("expected no refresh when disabled")
	}
}

func TestSchedulerRefreshesUntilCanceled(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("database unavailable")}
	scheduler := NewScheduler(refresher, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for refresher.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 refreshes, got %d", refresher.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}
}
