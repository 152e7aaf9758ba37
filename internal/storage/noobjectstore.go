package storage

import (
	"context"
	"sync"

	"github.com/anyvario/anyvar/internal/vrs"
)

// NoObjectStore is the degenerate Storage backend spec.md §4.4 calls for:
// it computes and returns identifiers without persisting the objects
// themselves. Mappings, annotations, and search results are unavailable
// (every read returns not-found/empty); it exists for translate-only
// workloads that only need deterministic identifier assignment.
type NoObjectStore struct {
	mu    sync.Mutex
	known map[string]struct{}
}

// NewNoObjectStore returns a ready-to-use NoObjectStore.
func NewNoObjectStore() *NoObjectStore {
	return &NoObjectStore{known: make(map[string]struct{})}
}

// PutVRS records that an identifier was seen in an in-memory set, but
// stores nothing durable; no read method consults that set.
func (s *NoObjectStore) PutVRS(_ context.Context, id string, _ vrs.VrsObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = struct{}{}
	return nil
}

// GetVRS always reports not-found: NoObjectStore never retains payloads.
func (s *NoObjectStore) GetVRS(_ context.Context, _ string) (vrs.VrsObject, bool, error) {
	return nil, false, nil
}

// PutMapping is a no-op; NoObjectStore does not retain mappings.
func (s *NoObjectStore) PutMapping(_ context.Context, _ vrs.VariationMapping) error {
	return nil
}

// GetMappings always returns an empty slice.
func (s *NoObjectStore) GetMappings(_ context.Context, _ string, _ *vrs.MappingType) ([]vrs.VariationMapping, error) {
	return nil, nil
}

// PutAnnotation is a no-op; NoObjectStore does not retain annotations.
func (s *NoObjectStore) PutAnnotation(_ context.Context, _ vrs.Annotation) error {
	return nil
}

// GetAnnotations always returns an empty slice.
func (s *NoObjectStore) GetAnnotations(_ context.Context, _ string, _ *string) ([]vrs.Annotation, error) {
	return nil, nil
}

// Search always returns no results: without retained locations there is
// nothing to index.
func (s *NoObjectStore) Search(_ context.Context, _ string, _, _ int64) ([]vrs.Allele, error) {
	return nil, nil
}

// BeginBatch returns a BatchContext whose writer simply marks identifiers
// seen, mirroring PutVRS's semantics under the batched path.
func (s *NoObjectStore) BeginBatch(opts BatchOptions) (*BatchContext, error) {
	return newBatchContext(noObjectBatchWriter{s}, opts), nil
}

// Close is a no-op; NoObjectStore owns no external resources.
func (s *NoObjectStore) Close() error { return nil }

type noObjectBatchWriter struct{ s *NoObjectStore }

func (w noObjectBatchWriter) ApplyBatch(ctx context.Context, rows []BatchRow, _ MergeStrategy) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	for _, r := range rows {
		if r.Table == tableVrsObjects {
			w.s.known[r.Object.ID] = struct{}{}
		}
	}
	return nil
}

var _ Storage = (*NoObjectStore)(nil)
