package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyvario/anyvar/internal/vrs"
)

type fakeBatchWriter struct {
	mu      sync.Mutex
	applied [][]BatchRow
	failOn  int // fail on the N-th ApplyBatch call (0 = never)
	calls   int
}

func (f *fakeBatchWriter) ApplyBatch(_ context.Context, rows []BatchRow, _ MergeStrategy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return errors.New("simulated write failure")
	}
	cp := make([]BatchRow, len(rows))
	copy(cp, rows)
	f.applied = append(f.applied, cp)
	return nil
}

func (f *fakeBatchWriter) totalRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.applied {
		n += len(b)
	}
	return n
}

func TestBatchContext_FlushesOnLimit(t *testing.T) {
	w := &fakeBatchWriter{}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 2, MaxPendingBatches: 4})

	require.NoError(t, bc.PutVRS("id1", testAllele("a", 1, 2)))
	require.NoError(t, bc.PutVRS("id2", testAllele("a", 2, 3)))
	require.NoError(t, bc.PutVRS("id3", testAllele("a", 3, 4)))

	require.NoError(t, bc.End(true))
	assert.Equal(t, 3, w.totalRows())
}

func TestBatchContext_FlushOnExit(t *testing.T) {
	w := &fakeBatchWriter{}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 100, MaxPendingBatches: 4})

	require.NoError(t, bc.PutVRS("id1", testAllele("a", 1, 2)))
	require.NoError(t, bc.End(true))

	assert.Equal(t, 1, w.totalRows())
}

func TestBatchContext_DiscardOnExitWithoutFlush(t *testing.T) {
	w := &fakeBatchWriter{}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 100, MaxPendingBatches: 4})

	require.NoError(t, bc.PutVRS("id1", testAllele("a", 1, 2)))
	require.NoError(t, bc.End(false))

	assert.Equal(t, 0, w.totalRows())
}

func TestBatchContext_FailurePoisonsSubsequentWrites(t *testing.T) {
	w := &fakeBatchWriter{failOn: 1}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 1, MaxPendingBatches: 4})

	require.NoError(t, bc.PutVRS("id1", testAllele("a", 1, 2)))

	// Give the writer goroutine a chance to observe the failed batch
	// before the second put; End() blocks until drain finishes, so
	// asserting via End's return value is the robust check.
	err := bc.PutVRS("id2", testAllele("a", 2, 3))
	if err == nil {
		err = bc.End(true)
	}
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchAborted))
}

func TestBatchContext_EndIsIdempotent(t *testing.T) {
	w := &fakeBatchWriter{}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 10, MaxPendingBatches: 4})

	require.NoError(t, bc.PutVRS("id1", testAllele("a", 1, 2)))
	require.NoError(t, bc.End(true))
	require.NoError(t, bc.End(true))
}

func TestBatchContext_PutMappingAndAnnotation(t *testing.T) {
	w := &fakeBatchWriter{}
	bc := newBatchContext(w, BatchOptions{BatchLimit: 2, MaxPendingBatches: 4})

	require.NoError(t, bc.PutMapping(vrs.VariationMapping{SourceID: "a", DestID: "b", MappingType: vrs.MappingLiftover}))
	require.NoError(t, bc.PutAnnotation(vrs.Annotation{ObjectID: "a", AnnotationType: "gene"}))
	require.NoError(t, bc.End(true))

	assert.Equal(t, 2, w.totalRows())
}

func TestDefaultBatchOptions(t *testing.T) {
	opts := DefaultBatchOptions()
	assert.Equal(t, 100_000, opts.BatchLimit)
	assert.Equal(t, 50, opts.MaxPendingBatches)
	assert.True(t, opts.FlushOnExit)
	assert.Equal(t, MergeStrict, opts.MergeStrategy)
}
