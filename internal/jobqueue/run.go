// Package jobqueue implements the async VCF ingest job lifecycle
// (spec.md §4.9): the Run state machine, a minimal Broker contract, and a
// channel-based in-memory implementation.
package jobqueue

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is a Run's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// DefaultTTL is applied when a run is submitted without an explicit TTL
// (SPEC_FULL.md §10(b) decision: 24h, matching the corpus's other
// cache/result-expiry defaults).
const DefaultTTL = 24 * time.Hour

// ErrRunIDConflict marks a Submit call whose run_id is already in use by
// an active (non-terminal, non-expired) run (spec.md invariant 5).
var ErrRunIDConflict = errors.New("jobqueue: run id already in use")

// Run is a unit of async bulk-VCF work identified by a UUID (spec.md §3).
type Run struct {
	RunID         string
	Status        Status
	InputPath     string
	OutputPath    string
	ErrorMessage  string
	SubmittedAt   time.Time
	CompletedAt   *time.Time
	TTLExpiresAt  time.Time
}

// NewRun constructs a PENDING Run. runID, if empty, is generated
// (spec.md §3: "run_id (client-supplied or server-generated UUID)"). A
// ttl of 0 applies DefaultTTL.
func NewRun(runID, inputPath string, ttl time.Duration, now time.Time) *Run {
	if runID == "" {
		runID = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Run{
		RunID:        runID,
		Status:       StatusPending,
		InputPath:    inputPath,
		SubmittedAt:  now,
		TTLExpiresAt: now.Add(ttl),
	}
}

// IsTerminal reports whether status is one a run cannot leave without
// external resubmission.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// Expired reports whether the run's TTL has elapsed as of now.
func (r *Run) Expired(now time.Time) bool {
	return now.After(r.TTLExpiresAt)
}

// EffectiveStatus returns EXPIRED if the run's TTL has elapsed, otherwise
// its stored status (spec.md §3's "any terminal state plus t >
// ttl_expires_at -> EXPIRED").
func (r *Run) EffectiveStatus(now time.Time) Status {
	if r.Expired(now) {
		return StatusExpired
	}
	return r.Status
}

// Start transitions PENDING -> RUNNING. Returns false if the run wasn't
// PENDING.
func (r *Run) Start() bool {
	if r.Status != StatusPending {
		return false
	}
	r.Status = StatusRunning
	return true
}

// Requeue transitions RUNNING -> PENDING, so a run abandoned by a
// hard-timed-out worker can be picked up and re-executed by the next
// redelivery's Start() (spec.md §4.9: "the worker must tolerate
// re-execution"). A no-op on any other status, so a genuine duplicate
// delivery of an already-terminal run is unaffected.
func (r *Run) Requeue() {
	if r.Status == StatusRunning {
		r.Status = StatusPending
	}
}

// Complete transitions RUNNING -> COMPLETED, recording outputPath and the
// completion time.
func (r *Run) Complete(outputPath string, now time.Time) {
	r.Status = StatusCompleted
	r.OutputPath = outputPath
	r.CompletedAt = &now
}

// Fail transitions RUNNING -> FAILED, recording the error message.
func (r *Run) Fail(errMsg string, now time.Time) {
	r.Status = StatusFailed
	r.ErrorMessage = errMsg
	r.CompletedAt = &now
}
