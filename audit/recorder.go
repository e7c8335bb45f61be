package audit

import (
	"context"
	"log"
	"time"

	internalaudit "github.com/MrEthical07/subAuth/internal/audit"
	"github.com/MrEthical07/subAuth/internal/ids"
)

// Input is what callers supply; the recorder fills in id, time and request
// info.
type Input struct {
	ActorID    string
	Action     Action
	TargetType TargetType
	TargetID   string
	Metadata   map[string]string
}

// RecorderConfig controls buffering.
type RecorderConfig struct {
	BufferSize int
	// DropIfFull drops entries instead of blocking the caller when the
	// buffer is full. Dropped entries are counted.
	DropIfFull bool
	// Now overrides the entry clock. Nil means time.Now.
	Now func() time.Time
}

// Recorder stamps and asynchronously persists audit entries.
//
// Recording is fire-and-forget: failures are logged and counted, never
// returned to the business action that triggered them, and never roll it
// back.
type Recorder struct {
	sink       Sink
	dispatcher *internalaudit.Dispatcher[Entry]
	now        func() time.Time
}

// NewRecorder starts the delivery goroutine. Close drains it.
func NewRecorder(cfg RecorderConfig, sink Sink) *Recorder {
	if sink == nil {
		sink = NoOpSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		sink: sink,
		dispatcher: internalaudit.NewDispatcher[Entry](
			internalaudit.Config{BufferSize: cfg.BufferSize, DropIfFull: cfg.DropIfFull},
			internalaudit.SinkFunc[Entry](sink.Emit),
		),
		now: cfg.Now,
	}
}

func (r *Recorder) build(ctx context.Context, in Input) (Entry, error) {
	now := r.now().UTC()
	ip, ua := RequestInfo(ctx)
	e := Entry{
		ID:         ids.NewAt(now),
		ActorID:    in.ActorID,
		Action:     in.Action,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		IP:         ip,
		UserAgent:  ua,
		Metadata:   in.Metadata,
		CreatedAt:  now,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Record stamps in and enqueues it. The bool reports whether the entry was
// accepted for persistence.
func (r *Recorder) Record(ctx context.Context, in Input) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, err := r.build(ctx, in)
	if err != nil {
		log.Printf("subAuth: audit entry rejected: %v", err)
		return Entry{}, false
	}
	if !r.dispatcher.Emit(ctx, e) {
		log.Printf("subAuth: audit entry dropped: action=%s actor=%s", e.Action, e.ActorID)
		return e, false
	}
	return e, true
}

// RecordSync stamps in and writes it before returning. Sinks implementing
// Writer report their error.
func (r *Recorder) RecordSync(ctx context.Context, in Input) (Entry, error) {
	e, err := r.build(ctx, in)
	if err != nil {
		return Entry{}, err
	}
	if w, ok := r.sink.(Writer); ok {
		if err := w.Write(ctx, e); err != nil {
			return Entry{}, err
		}
		return e, nil
	}
	r.sink.Emit(ctx, e)
	return e, nil
}

// Dropped returns how many entries were not accepted by the buffer.
func (r *Recorder) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dispatcher.Dropped()
}

// Delivered returns how many entries reached the sink.
func (r *Recorder) Delivered() uint64 {
	if r == nil {
		return 0
	}
	return r.dispatcher.Delivered()
}

// Close stops accepting entries and waits for buffered ones to be delivered.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.dispatcher.Close()
}
