package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyvario/anyvar/internal/vrs"
)

func openInMemoryDuckDB(t *testing.T) *DuckDBStore {
	t.Helper()
	s, err := OpenDuckDB("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testAllele(accession string, start, end int64) *vrs.Allele {
	return &vrs.Allele{
		Type: vrs.KindAllele,
		Location: vrs.SequenceLocation{
			Type: vrs.KindSequenceLocation,
			SequenceReference: vrs.SequenceReference{
				Type:            vrs.KindSequenceReference,
				RefgetAccession: accession,
			},
			Start: start,
			End:   end,
		},
		State: vrs.NewLiteralSequenceExpression("A"),
	}
}

func TestDuckDBStore_OpenClose(t *testing.T) {
	s := openInMemoryDuckDB(t)
	assert.NotNil(t, s.DB())
}

func TestDuckDBStore_PutGetVRS(t *testing.T) {
	s := openInMemoryDuckDB(t)
	ctx := context.Background()

	a := testAllele("Ya6Rs7DHhDeg7YaOSg1EoNi3U_nQ9SvO", 100, 101)
	id, err := a.ID()
	require.NoError(t, err)

	require.NoError(t, s.PutVRS(ctx, id, a))

	got, ok, err := s.GetVRS(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	gotAllele, isAllele := got.(*vrs.Allele)
	require.True(t, isAllele)
	assert.Equal(t, a.Location.Start, gotAllele.Location.Start)
	assert.Equal(t, a.State.Sequence, gotAllele.State.Sequence)
}

func TestDuckDBStore_GetVRS_NotFound(t *testing.T) {
	s := openInMemoryDuckDB(t)
	_, ok, err := s.GetVRS(context.Background(), "ga4gh:VA.nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuckDBStore_PutVRS_Idempotent(t *testing.T) {
	s := openInMemoryDuckDB(t)
	ctx := context.Background()

	a := testAllele("abc", 10, 20)
	id, err := a.ID()
	require.NoError(t, err)

	require.NoError(t, s.PutVRS(ctx, id, a))
	require.NoError(t, s.PutVRS(ctx, id, a))

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM vrs_objects WHERE id = ?`, id).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDuckDBStore_MappingsRoundTrip(t *testing.T) {
	s := openInMemoryDuckDB(t)
	ctx := context.Background()

	m := vrs.VariationMapping{SourceID: "ga4gh:VA.a", DestID: "ga4gh:VA.b", MappingType: vrs.MappingLiftover}
	require.NoError(t, s.PutMapping(ctx, m))

	got, err := s.GetMappings(ctx, "ga4gh:VA.a", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m, got[0])

	filterType := vrs.MappingTranscription
	none, err := s.GetMappings(ctx, "ga4gh:VA.a", &filterType)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDuckDBStore_AnnotationsRoundTrip(t *testing.T) {
	s := openInMemoryDuckDB(t)
	ctx := context.Background()

	a := vrs.Annotation{ObjectID: "ga4gh:VA.a", AnnotationType: "gene", AnnotationValue: map[string]any{"symbol": "KRAS"}}
	require.NoError(t, s.PutAnnotation(ctx, a))

	got, err := s.GetAnnotations(ctx, "ga4gh:VA.a", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gene", got[0].AnnotationType)
}

func TestDuckDBStore_Search(t *testing.T) {
	s := openInMemoryDuckDB(t)
	ctx := context.Background()

	inside := testAllele("acc1", 100, 110)
	outside := testAllele("acc1", 500, 510)
	otherAccession := testAllele("acc2", 105, 108)

	for _, a := range []*vrs.Allele{inside, outside, otherAccession} {
		id, err := a.ID()
		require.NoError(t, err)
		require.NoError(t, s.PutVRS(ctx, id, a))
	}

	results, err := s.Search(ctx, "acc1", 100, 120)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(100), results[0].Location.Start)
}
