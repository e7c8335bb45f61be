// Package sweep runs the periodic removal of expired refresh sessions.
package sweep

import (
	"context"
	"log"
	"time"
)

// Sweeper removes expired sessions and reports how many it removed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Worker calls a Sweeper on a fixed interval.
type Worker struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
}

// NewWorker returns a Worker. Each sweep is bounded by timeout, or by
// interval when timeout is zero.
func NewWorker(s Sweeper, interval, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = interval
	}
	return &Worker{sweeper: s, interval: interval, timeout: timeout}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("subAuth: sweep worker started, interval %s", w.interval)
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("subAuth: sweep worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep. Errors are logged, never returned.
func (w *Worker) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		log.Printf("subAuth: session sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("subAuth: swept %d expired sessions", n)
	}
	return n
}
