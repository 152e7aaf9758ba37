package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoObjectStore_GetAlwaysMisses(t *testing.T) {
	s := NewNoObjectStore()
	ctx := context.Background()

	a := testAllele("a", 1, 2)
	id, err := a.ID()
	require.NoError(t, err)

	require.NoError(t, s.PutVRS(ctx, id, a))

	_, ok, err := s.GetVRS(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoObjectStore_SearchAlwaysEmpty(t *testing.T) {
	s := NewNoObjectStore()
	results, err := s.Search(context.Background(), "a", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNoObjectStore_BeginBatch(t *testing.T) {
	s := NewNoObjectStore()
	bc, err := s.BeginBatch(DefaultBatchOptions())
	require.NoError(t, err)

	a := testAllele("a", 1, 2)
	id, err := a.ID()
	require.NoError(t, err)
	require.NoError(t, bc.PutVRS(id, a))
	require.NoError(t, bc.End(true))
}
