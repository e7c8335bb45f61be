package audit

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"
)

// Sink receives recorded entries from the recorder's delivery goroutine.
type Sink interface {
	Emit(ctx context.Context, e Entry)
}

// Writer is implemented by sinks that can report persistence failures.
// RecordSync uses it when available.
type Writer interface {
	Write(ctx context.Context, e Entry) error
}

// NoOpSink drops entries.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Entry) {}

// StoreSink persists entries through a Store. Failures are logged and never
// propagated to the recording caller.
type StoreSink struct {
	store   Store
	timeout time.Duration
}

// NewStoreSink wraps store. A non-positive timeout defaults to 5s per write.
func NewStoreSink(store Store, timeout time.Duration) *StoreSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StoreSink{store: store, timeout: timeout}
}

func (s *StoreSink) Emit(ctx context.Context, e Entry) {
	if err := s.Write(ctx, e); err != nil {
		log.Printf("subAuth: audit append failed: action=%s actor=%s: %v", e.Action, e.ActorID, err)
	}
}

func (s *StoreSink) Write(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Append(ctx, e)
}

// ChannelSink writes entries into a buffered channel.
type ChannelSink struct {
	entries chan Entry
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		entries: make(chan Entry, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, e Entry) {
	select {
	case s.entries <- e:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Entries() <-chan Entry {
	return s.entries
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, e Entry) {
	if err := s.Write(ctx, e); err != nil {
		log.Printf("subAuth: audit json write failed: %v", err)
	}
}

func (s *JSONWriterSink) Write(_ context.Context, e Entry) error {
	if s == nil || s.writer == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
