package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vikerian/dashboarder-go/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type published struct {
	topic   string
	payload []byte
}

// recordingPublisher si pamatuje všechny odeslané zprávy.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, payload: append([]byte(nil), payload...)})
	return p.err
}

func (p *recordingPublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

var errBackendDown = errors.New("backend down")

// countingStore obalí Memory, počítá zápisy a umí simulovat výpadek.
type countingStore struct {
	*store.Memory
	mu        sync.Mutex
	writes    int
	failWrite bool
	failQuery bool
	block     bool // čeká na ctx.Done()
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: store.NewMemory()}
}

func (s *countingStore) WritePoint(ctx context.Context, p store.Point) error {
	s.mu.Lock()
	fail, block := s.failWrite, s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return errBackendDown
	}
	if err := s.Memory.WritePoint(ctx, p); err != nil {
		return err
	}
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return nil
}

func (s *countingStore) QueryRange(ctx context.Context, q store.RangeQuery) ([]store.Record, error) {
	s.mu.Lock()
	fail, block := s.failQuery, s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, errBackendDown
	}
	return s.Memory.QueryRange(ctx, q)
}

func (s *countingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *countingStore) set(fn func(s *countingStore)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

// fields dekóduje JSON stejně jako Dispatcher.
func fields(raw string) map[string]any {
	res := ParsePayload([]byte(raw))
	if res.Outcome != PayloadValid {
		panic("invalid test payload: " + raw)
	}
	return res.Fields
}
