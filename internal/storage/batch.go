package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/anyvario/anyvar/internal/vrs"
)

// BatchOptions parameterizes a BatchContext (spec.md §4.6).
type BatchOptions struct {
	// BatchLimit is the number of rows collected before a batch is handed
	// to the background writer. Default 100_000.
	BatchLimit int
	// MaxPendingBatches bounds the writer's FIFO queue; producers block
	// (backpressure) once it is full. Default 50.
	MaxPendingBatches int
	// FlushOnExit records the flush-on-exit setting (default true). The
	// BatchContext does not read it: End flushes or discards according to
	// its own flush argument.
	FlushOnExit bool
	// MergeStrategy selects the write-conflict behavior applied when
	// each batch is executed.
	MergeStrategy MergeStrategy
}

// DefaultBatchOptions returns spec.md §4.6's stated defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchLimit:        100_000,
		MaxPendingBatches: 50,
		FlushOnExit:       true,
		MergeStrategy:     MergeStrict,
	}
}

// batchWriterState is the background writer's state machine (spec.md
// §4.5): Idle -> Draining -> Idle, or Draining -> Failed on unrecoverable
// error.
type batchWriterState int

const (
	writerIdle batchWriterState = iota
	writerDraining
	writerFailed
)

// pendingBatch is one unit of buffered work handed from a producer to the
// background writer.
type pendingBatch struct {
	rows []BatchRow
}

// rowTable names which relation a BatchRow belongs to, so a BatchWriter
// can dispatch each row to the right appender/statement.
type rowTable int

const (
	tableVrsObjects rowTable = iota
	tableMappings
	tableAnnotations
)

// BatchRow is a single buffered write, tagged by the table it targets.
// Exactly one of the payload fields is populated, matching Table.
type BatchRow struct {
	Table      rowTable
	Object     VrsObjectRow
	Mapping    vrs.VariationMapping
	Annotation vrs.Annotation
}

// BatchWriter is the narrow execution surface a backend exposes to the
// background writer goroutine; concrete backends implement it to apply one
// drained batch using a single connection/transaction (or appender, in
// DuckDB's case).
type BatchWriter interface {
	ApplyBatch(ctx context.Context, rows []BatchRow, strategy MergeStrategy) error
}

// BatchContext is a scoped region during which writes are buffered and
// flushed in bulk (spec.md §4.6). It owns one background writer goroutine
// and a bounded channel of pending batches for the lifetime of the scope.
type BatchContext struct {
	opts   BatchOptions
	writer BatchWriter

	mu      sync.Mutex
	buf     []BatchRow
	queue   chan pendingBatch
	done    chan struct{}
	wg      sync.WaitGroup
	state   batchWriterState
	failErr error
	closed  bool
}

// newBatchContext allocates the writer goroutine and bounded queue
// (spec.md §4.6: "on entry, allocate a writer thread and a bounded
// queue").
func newBatchContext(w BatchWriter, opts BatchOptions) *BatchContext {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 100_000
	}
	if opts.MaxPendingBatches <= 0 {
		opts.MaxPendingBatches = 50
	}
	if opts.MergeStrategy == "" {
		opts.MergeStrategy = MergeStrict
	}

	bc := &BatchContext{
		opts:   opts,
		writer: w,
		queue:  make(chan pendingBatch, opts.MaxPendingBatches),
		done:   make(chan struct{}),
	}

	bc.wg.Add(1)
	go bc.drain()

	return bc
}

// drain is the background writer: it pops batches off the bounded queue
// FIFO and executes them, promoting a shared error cell that poisons
// subsequent puts on unrecoverable failure (spec.md §4.5).
func (bc *BatchContext) drain() {
	defer bc.wg.Done()

	for batch := range bc.queue {
		select {
		case <-bc.done:
			// End(false): batches still queued are discarded, not applied.
			continue
		default:
		}
		bc.setState(writerDraining)

		if err := bc.writer.ApplyBatch(context.Background(), batch.rows, bc.opts.MergeStrategy); err != nil {
			bc.mu.Lock()
			bc.state = writerFailed
			bc.failErr = fmt.Errorf("%w: %v", ErrBatchAborted, err)
			bc.mu.Unlock()
			// Drain the remaining queue without executing it so End()
			// doesn't block forever on a poisoned writer.
			for range bc.queue {
			}
			return
		}

		bc.setState(writerIdle)
	}
}

func (bc *BatchContext) setState(s batchWriterState) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.state != writerFailed {
		bc.state = s
	}
}

// checkFailed returns the poisoning error if the writer has failed.
func (bc *BatchContext) checkFailed() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.state == writerFailed {
		return bc.failErr
	}
	return nil
}

// enqueueRow buffers a single write. When the buffer reaches BatchLimit it
// is handed to the background writer; if the pending-batches queue is
// full, this call blocks (backpressure), per spec.md §4.5/§5.
func (bc *BatchContext) enqueueRow(row BatchRow) error {
	if err := bc.checkFailed(); err != nil {
		return err
	}

	bc.mu.Lock()
	bc.buf = append(bc.buf, row)
	flush := len(bc.buf) >= bc.opts.BatchLimit
	var batch pendingBatch
	if flush {
		batch = pendingBatch{rows: bc.buf}
		bc.buf = nil
	}
	bc.mu.Unlock()

	if flush {
		select {
		case bc.queue <- batch:
		case <-bc.done:
			return ErrBatchAborted
		}
	}

	return bc.checkFailed()
}

// End closes the batch scope. With flush=true it waits for all pending
// batches (including any partially-filled buffer) to drain before
// returning; with flush=false it discards pending batches, matching a
// cancelled scope's "flush=false" exit (spec.md §5).
func (bc *BatchContext) End(flush bool) error {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil
	}
	bc.closed = true
	remaining := bc.buf
	bc.buf = nil
	bc.mu.Unlock()

	if !flush {
		close(bc.done)
		close(bc.queue)
		bc.wg.Wait()
		return nil
	}

	if len(remaining) > 0 {
		select {
		case bc.queue <- pendingBatch{rows: remaining}:
		case <-bc.done:
		}
	}
	close(bc.queue)
	bc.wg.Wait()

	return bc.checkFailed()
}

// Err reports the writer's poisoning error, if any, without closing the
// scope.
func (bc *BatchContext) Err() error {
	return bc.checkFailed()
}

// PutVRS buffers a VRS object write within the batch scope.
func (bc *BatchContext) PutVRS(id string, obj vrs.VrsObject) error {
	row, err := newVrsObjectRow(id, obj)
	if err != nil {
		return err
	}
	return bc.enqueueRow(BatchRow{Table: tableVrsObjects, Object: row})
}

// PutMapping buffers a mapping write within the batch scope.
func (bc *BatchContext) PutMapping(m vrs.VariationMapping) error {
	return bc.enqueueRow(BatchRow{Table: tableMappings, Mapping: m})
}

// PutAnnotation buffers an annotation write within the batch scope.
func (bc *BatchContext) PutAnnotation(a vrs.Annotation) error {
	return bc.enqueueRow(BatchRow{Table: tableAnnotations, Annotation: a})
}
