package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	BufferSize int
	DropIfFull bool
}

// Sink receives dispatched values on the dispatcher goroutine.
type Sink[T any] interface {
	Emit(ctx context.Context, v T)
}

// SinkFunc adapts a function to Sink.
type SinkFunc[T any] func(ctx context.Context, v T)

// Emit calls f.
func (f SinkFunc[T]) Emit(ctx context.Context, v T) { f(ctx, v) }

// Dispatcher asynchronously forwards values to a sink from a single goroutine.
type Dispatcher[T any] struct {
	cfg       Config
	sink      Sink[T]
	ch        chan T
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery goroutine. Close must be called to drain
// and stop it.
func NewDispatcher[T any](cfg Config, sink Sink[T]) *Dispatcher[T] {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = SinkFunc[T](func(context.Context, T) {})
	}

	d := &Dispatcher[T]{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan T, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher[T]) run() {
	defer d.wg.Done()

	for {
		select {
		case v := <-d.ch:
			d.deliver(v)
		case <-d.done:
			for {
				select {
				case v := <-d.ch:
					d.deliver(v)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher[T]) deliver(v T) {
	d.sink.Emit(context.Background(), v)
	d.delivered.Add(1)
}

// Emit enqueues v. It reports false when v was not accepted: the dispatcher
// is closed, the buffer is full under DropIfFull, or ctx ended first.
func (d *Dispatcher[T]) Emit(ctx context.Context, v T) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- v:
			return true
		case <-d.done:
			return false
		default:
			d.dropped.Add(1)
			return false
		}
	}

	select {
	case d.ch <- v:
		return true
	case <-ctx.Done():
		d.dropped.Add(1)
		return false
	case <-d.done:
		return false
	}
}

// Close stops accepting values and waits until the buffer is drained.
func (d *Dispatcher[T]) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many values were rejected for lack of buffer space.
func (d *Dispatcher[T]) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered returns how many values reached the sink.
func (d *Dispatcher[T]) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
