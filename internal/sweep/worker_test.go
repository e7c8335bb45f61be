package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeSweeper) SweepExpired(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep without deadline")
	}
	return f.n, f.err
}

func TestRunOnce(t *testing.T) {
	f := &fakeSweeper{n: 3}
	w := NewWorker(f, time.Hour, 0)
	if got := w.RunOnce(context.Background()); got != 3 {
		t.Fatalf("RunOnce = %d, want 3", got)
	}
}

func TestRunOnceSwallowsErrors(t *testing.T) {
	f := &fakeSweeper{n: 3, err: errors.New("redis down")}
	w := NewWorker(f, time.Hour, time.Second)
	if got := w.RunOnce(context.Background()); got != 0 {
		t.Fatalf("RunOnce = %d, want 0 on error", got)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	f := &fakeSweeper{}
	w := NewWorker(f, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 sweeps, got %d", f.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
