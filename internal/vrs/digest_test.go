package vrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_Deterministic(t *testing.T) {
	v := map[string]any{"start": int64(87894076), "end": int64(87894077)}

	d1, err := Digest(v)
	require.NoError(t, err)
	d2, err := Digest(v)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 32) // 24 bytes base64url-unpadded -> 32 chars
}

func TestDigest_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"start": int64(1), "end": int64(2)}
	b := map[string]any{"end": int64(2), "start": int64(1)}

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db, "digest must be independent of Go map iteration/construction order")
}

func TestDigest_DistinctInputsDiffer(t *testing.T) {
	d1, err := Digest(map[string]any{"start": int64(1)})
	require.NoError(t, err)
	d2, err := Digest(map[string]any{"start": int64(2)})
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}
