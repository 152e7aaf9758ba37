package jobqueue

import (
	"context"
	"errors"
)

// ErrNoBroker is returned by Consume when the broker has been closed and
// has no further deliveries pending.
var ErrNoBroker = errors.New("jobqueue: broker closed")

// Delivery wraps a Run with the Ack/Nack handles needed for late
// acknowledgement (spec.md §4.9's concurrency contract: tasks are
// acknowledged after success, never before, so a broker crash mid-task
// redelivers rather than silently drops work).
type Delivery struct {
	Run  *Run
	Ack  func()
	Nack func()
}

// Broker is the minimal submit/consume/ack/nack contract a VCF ingest
// worker pool needs (spec.md §9 redesign note: no full message-broker
// client, just this shape, so an in-memory implementation and a future
// real-broker-backed one are interchangeable).
type Broker interface {
	// Submit enqueues run for delivery. Returns ErrRunIDConflict if
	// run.RunID is already active.
	Submit(ctx context.Context, run *Run) error

	// Consume blocks until a Delivery is available, ctx is cancelled, or
	// the broker is closed (returning ErrNoBroker).
	Consume(ctx context.Context) (Delivery, error)

	// Get returns the current state of the run with the given id.
	Get(runID string) (*Run, bool)

	// Close stops accepting new deliveries; pending Consume calls
	// return ErrNoBroker.
	Close()
}
