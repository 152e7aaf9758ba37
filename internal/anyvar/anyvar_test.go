package anyvar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyvario/anyvar/internal/annotsource"
	"github.com/anyvario/anyvar/internal/dataproxy"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
	"github.com/anyvario/anyvar/internal/vrs"
)

func newTestAnyVar(t *testing.T) *AnyVar {
	t.Helper()
	proxy := dataproxy.NewLocalProxy()
	proxy.AddAlias("NC_000007.14", "refseq7")
	proxy.AddSequence("refseq7", string(make([]byte, 200)))

	store, err := storage.OpenDuckDB("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(translate.New(proxy), store)
}

func TestAnyVar_RegisterAndGetObject(t *testing.T) {
	av := newTestAnyVar(t)
	ctx := context.Background()

	id, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)
	assert.Contains(t, id, "ga4gh:VA.")

	obj, ok, err := av.GetObject(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	allele, isAllele := obj.(*vrs.Allele)
	require.True(t, isAllele)
	assert.Equal(t, "T", allele.State.Sequence)
}

func TestAnyVar_RegisterIsIdempotent(t *testing.T) {
	av := newTestAnyVar(t)
	ctx := context.Background()

	id1, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)
	id2, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestAnyVar_GetObject_NotFound(t *testing.T) {
	av := newTestAnyVar(t)
	_, ok, err := av.GetObject(context.Background(), "ga4gh:VA.nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnyVar_MappingsAndAnnotations(t *testing.T) {
	av := newTestAnyVar(t)
	ctx := context.Background()

	id, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)

	require.NoError(t, av.PutMapping(ctx, vrs.VariationMapping{SourceID: id, DestID: "ga4gh:VA.other", MappingType: vrs.MappingLiftover}))
	mappings, err := av.GetObjectMappings(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, mappings, 1)

	require.NoError(t, av.PutAnnotation(ctx, vrs.Annotation{ObjectID: id, AnnotationType: "gene", AnnotationValue: "KRAS"}))
	anns, err := av.GetObjectAnnotations(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, anns, 1)
}

type fakeGeneSource struct{}

func (fakeGeneSource) Name() string    { return "fakegene" }
func (fakeGeneSource) Version() string { return "test" }
func (fakeGeneSource) Columns() []annotsource.ColumnDef {
	return []annotsource.ColumnDef{{Name: "label", Description: "constant test label"}}
}
func (fakeGeneSource) Annotate(obj vrs.VrsObject) map[string]any {
	if _, ok := obj.(*vrs.Allele); !ok {
		return nil
	}
	return map[string]any{"label": "registered"}
}

func TestAnyVar_RegisterAnnotationSourceAutoAnnotates(t *testing.T) {
	av := newTestAnyVar(t)
	av.RegisterAnnotationSource(fakeGeneSource{})
	ctx := context.Background()

	id, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)

	anns, err := av.GetObjectAnnotations(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, "fakegene.label", anns[0].AnnotationType)
	assert.Equal(t, "registered", anns[0].AnnotationValue)
}

func TestAnyVar_SearchVariations(t *testing.T) {
	av := newTestAnyVar(t)
	ctx := context.Background()

	_, err := av.Register(ctx, "NC_000007.14:140753335:A:T")
	require.NoError(t, err)

	results, err := av.SearchVariations(ctx, "refseq7", 140753335, 140753340)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestAnyVar_BatchContext(t *testing.T) {
	av := newTestAnyVar(t)

	bc, err := av.BatchContext(storage.DefaultBatchOptions())
	require.NoError(t, err)

	a := &vrs.Allele{
		Type: vrs.KindAllele,
		Location: vrs.SequenceLocation{
			Type: vrs.KindSequenceLocation,
			SequenceReference: vrs.SequenceReference{
				Type:            vrs.KindSequenceReference,
				RefgetAccession: "refseq7",
			},
			Start: 10,
			End:   11,
		},
		State: vrs.NewLiteralSequenceExpression("G"),
	}
	id, err := a.ID()
	require.NoError(t, err)

	require.NoError(t, bc.PutVRS(id, a))
	require.NoError(t, bc.End(true))

	obj, ok, err := av.GetObject(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vrs.KindAllele, obj.ObjectKind())
}
