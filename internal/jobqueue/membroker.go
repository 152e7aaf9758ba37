package jobqueue

import (
	"context"
	"sync"
	"time"
)

// MemBroker is a channel-based in-memory Broker. It keeps the
// authoritative Run registry itself (no external result backend), which
// is sufficient for a single-process deployment and for tests; a
// real-broker-backed implementation would instead persist Run state in
// the result backend named by spec.md §7's broker/result-backend config
// keys.
type MemBroker struct {
	mu     sync.Mutex
	runs   map[string]*Run
	queue  chan *Run
	closed bool
	closeOnce sync.Once
}

// NewMemBroker returns a MemBroker with the given queue depth. A depth of
// 0 makes Submit synchronous with a waiting Consume call.
func NewMemBroker(queueDepth int) *MemBroker {
	return &MemBroker{
		runs:  make(map[string]*Run),
		queue: make(chan *Run, queueDepth),
	}
}

func (b *MemBroker) Submit(ctx context.Context, run *Run) error {
	b.mu.Lock()
	if existing, ok := b.runs[run.RunID]; ok && !existing.EffectiveStatus(time.Now()).IsTerminal() {
		b.mu.Unlock()
		return ErrRunIDConflict
	}
	if b.closed {
		b.mu.Unlock()
		return ErrNoBroker
	}
	b.runs[run.RunID] = run
	b.mu.Unlock()

	select {
	case b.queue <- run:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemBroker) Consume(ctx context.Context) (Delivery, error) {
	select {
	case run, ok := <-b.queue:
		if !ok {
			return Delivery{}, ErrNoBroker
		}
		return Delivery{
			Run:  run,
			Ack:  func() {},
			Nack: func() { b.requeue(run) },
		}, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// requeue puts run back on the queue for redelivery (spec.md §4.9: a
// Nack, or a worker crash before Ack, must result in another worker
// eventually picking the run back up).
func (b *MemBroker) requeue(run *Run) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	b.queue <- run
}

func (b *MemBroker) Get(runID string) (*Run, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	run, ok := b.runs[runID]
	return run, ok
}

func (b *MemBroker) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.queue)
	})
}
