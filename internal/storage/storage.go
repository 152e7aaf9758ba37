// Package storage defines the contract AnyVar uses for object, annotation,
// mapping, and search persistence, plus the NoObjectStore stateless
// implementation and a DuckDB-backed relational implementation.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anyvario/anyvar/internal/vrs"
)

// Sentinel error kinds, matching the taxonomy in spec.md §7. Callers use
// errors.Is against these; concrete backends wrap them with context via
// %w.
var (
	// ErrNotFound is returned when a dereference misses.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict marks a duplicate-key write on a backend that enforces
	// uniqueness; callers treat it as a no-op for idempotent puts.
	ErrConflict = errors.New("storage: conflict")
	// ErrUnavailable marks a transient backend error; callers may retry.
	ErrUnavailable = errors.New("storage: unavailable")
	// ErrBatchAborted marks that a prior batch failed and the owning
	// BatchContext is poisoned until it is closed.
	ErrBatchAborted = errors.New("storage: batch aborted")
	// ErrBackpressureTimeout names a put that blocked on the
	// pending-batches queue past a deadline. No code path in this package
	// returns it: BatchContext puts block on a full queue with no deadline.
	ErrBackpressureTimeout = errors.New("storage: backpressure timeout")
)

// MergeStrategy selects the write-conflict behavior for backends without
// native unique-key enforcement (spec.md §4.5).
type MergeStrategy string

const (
	// MergeStrict performs a MERGE/UPSERT on the identifier key: strongest
	// duplicate prevention, serializes writers.
	MergeStrict MergeStrategy = "merge"
	// MergeInsertNotIn performs INSERT ... WHERE id NOT IN (target):
	// avoids locking the target, tolerates concurrent writers, cost grows
	// with table size.
	MergeInsertNotIn MergeStrategy = "insert_notin"
	// MergeInsertOnly performs an unconditional insert: maximum
	// throughput, no duplicate prevention, caller promises dedup upstream.
	MergeInsertOnly MergeStrategy = "insert"
)

// Storage is the abstract contract concrete backends implement. Every
// method must be safe for concurrent use.
type Storage interface {
	// PutVRS upserts a single VRS object keyed by its identifier.
	// Idempotent: putting the same object twice leaves storage
	// indistinguishable from a single put (spec.md §3 invariant 3).
	PutVRS(ctx context.Context, id string, obj vrs.VrsObject) error

	// GetVRS dereferences a VRS object by identifier. Returns
	// (nil, false, nil) when absent.
	GetVRS(ctx context.Context, id string) (vrs.VrsObject, bool, error)

	// PutMapping records a (source, dest, type) mapping. Idempotent.
	PutMapping(ctx context.Context, m vrs.VariationMapping) error

	// GetMappings returns mappings with the given source id, optionally
	// filtered by mapping type.
	GetMappings(ctx context.Context, sourceID string, mappingType *vrs.MappingType) ([]vrs.VariationMapping, error)

	// PutAnnotation appends an annotation. Multiple annotations sharing
	// (objectID, annotationType) are allowed.
	PutAnnotation(ctx context.Context, a vrs.Annotation) error

	// GetAnnotations returns annotations for an object, optionally
	// filtered by annotation type.
	GetAnnotations(ctx context.Context, objectID string, annotationType *string) ([]vrs.Annotation, error)

	// Search returns every Allele whose location has the given accession
	// and whose [start, end) intersects the query range, ordered by
	// Allele identifier (spec.md §4.7).
	Search(ctx context.Context, accession string, start, end int64) ([]vrs.Allele, error)

	// BeginBatch opens a batched write scope; see BatchContext.
	BeginBatch(opts BatchOptions) (*BatchContext, error)

	// Close releases the backend's connection pool and any background
	// writer thread.
	Close() error
}

// VrsObjectRow is the wire shape persisted in the vrs_objects table:
// one row per object of any VRS type, keyed by its identifier.
type VrsObjectRow struct {
	ID   string
	Kind vrs.Kind
	JSON []byte
}

// newVrsObjectRow serializes a VrsObject to its row form, the shape both
// the transactional and batched write paths persist.
func newVrsObjectRow(id string, obj vrs.VrsObject) (VrsObjectRow, error) {
	blob, err := json.Marshal(obj)
	if err != nil {
		return VrsObjectRow{}, fmt.Errorf("marshal vrs object %s: %w", id, err)
	}
	return VrsObjectRow{ID: id, Kind: obj.ObjectKind(), JSON: blob}, nil
}

// marshalAnnotationValue serializes an annotation's free-form value for
// storage in a JSON column.
func marshalAnnotationValue(v any) (string, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal annotation value: %w", err)
	}
	return string(blob), nil
}

// unmarshalAnnotationValue reverses marshalAnnotationValue, decoding into
// a generic any so callers don't need to know the value's shape up front.
func unmarshalAnnotationValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode annotation value: %w", err)
	}
	return v, nil
}

// decodeVrsObjectRow reconstructs the concrete VrsObject a row holds.
func decodeVrsObjectRow(row VrsObjectRow) (vrs.VrsObject, error) {
	switch row.Kind {
	case vrs.KindAllele:
		var a vrs.Allele
		if err := json.Unmarshal(row.JSON, &a); err != nil {
			return nil, fmt.Errorf("decode allele %s: %w", row.ID, err)
		}
		return &a, nil
	case vrs.KindSequenceLocation:
		var l vrs.SequenceLocation
		if err := json.Unmarshal(row.JSON, &l); err != nil {
			return nil, fmt.Errorf("decode sequence location %s: %w", row.ID, err)
		}
		return &l, nil
	case vrs.KindSequenceReference:
		var r vrs.SequenceReference
		if err := json.Unmarshal(row.JSON, &r); err != nil {
			return nil, fmt.Errorf("decode sequence reference %s: %w", row.ID, err)
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("storage: unknown vrs kind %q for id %s", row.Kind, row.ID)
	}
}
