package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyvario/anyvar/internal/dataproxy"
)

func newTestTranslator() (*VRSTranslator, *dataproxy.LocalProxy) {
	proxy := dataproxy.NewLocalProxy()
	proxy.AddAlias("NC_000010.11", "refseq10")
	proxy.AddAlias("NC_000007.14", "refseq7")
	proxy.AddAlias("7", "refseq7")
	proxy.AddSequence("refseq7", makeSeq(140753335+10, 'A'))
	proxy.AddSequence("refseq10", makeSeq(87894077+10, 'C'))
	return New(proxy), proxy
}

// makeSeq builds a sequence of length n filled with fill, used only to
// give GetSequence something to return for indel anchor checks.
func makeSeq(n int, fill byte) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return string(b)
}

func TestTranslateAllele_HGVS(t *testing.T) {
	tr, _ := newTestTranslator()
	a, err := tr.TranslateAllele(context.Background(), "NC_000010.11:g.87894077C>T")
	require.NoError(t, err)

	assert.Equal(t, "refseq10", a.Location.SequenceReference.RefgetAccession)
	assert.Equal(t, int64(87894076), a.Location.Start)
	assert.Equal(t, int64(87894077), a.Location.End)
	assert.Equal(t, "T", a.State.Sequence)

	id, err := a.ID()
	require.NoError(t, err)
	assert.Contains(t, id, "ga4gh:VA.")
}

func TestTranslateAllele_SPDI(t *testing.T) {
	tr, _ := newTestTranslator()
	a, err := tr.TranslateAllele(context.Background(), "NC_000007.14:140753335:A:T")
	require.NoError(t, err)

	assert.Equal(t, "refseq7", a.Location.SequenceReference.RefgetAccession)
	assert.Equal(t, int64(140753335), a.Location.Start)
	assert.Equal(t, int64(140753336), a.Location.End)
	assert.Equal(t, "T", a.State.Sequence)
}

func TestTranslateAllele_GnomAD(t *testing.T) {
	tr, _ := newTestTranslator()
	a, err := tr.TranslateAllele(context.Background(), "7-140753335-A-T")
	require.NoError(t, err)

	assert.Equal(t, "refseq7", a.Location.SequenceReference.RefgetAccession)
	assert.Equal(t, int64(140753334), a.Location.Start)
	assert.Equal(t, int64(140753335), a.Location.End)
	assert.Equal(t, "T", a.State.Sequence)
}

func TestTranslateAllele_HGVSAndSPDIAndGnomAD_SameDigest(t *testing.T) {
	tr, _ := newTestTranslator()

	hgvs, err := tr.TranslateAllele(context.Background(), "NC_000010.11:g.87894077C>T")
	require.NoError(t, err)
	hgvsID, err := hgvs.ID()
	require.NoError(t, err)

	spdi, err := tr.TranslateAllele(context.Background(), "NC_000010.11:87894076:C:T")
	require.NoError(t, err)
	spdiID, err := spdi.ID()
	require.NoError(t, err)

	gnomad, err := tr.TranslateAllele(context.Background(), "NC_000010.11-87894077-C-T")
	require.NoError(t, err)
	gnomadID, err := gnomad.ID()
	require.NoError(t, err)

	assert.Equal(t, hgvsID, spdiID, "equivalent variants in different nomenclatures must share an identifier")
	assert.Equal(t, hgvsID, gnomadID, "equivalent variants in different nomenclatures must share an identifier")
}

func TestTranslateAllele_UnknownNomenclature(t *testing.T) {
	tr, _ := newTestTranslator()
	_, err := tr.TranslateAllele(context.Background(), "not a variant definition")
	assert.True(t, errors.Is(err, ErrUnknownNomenclature))
}

func TestTranslateAllele_UnresolvedAccession(t *testing.T) {
	tr, _ := newTestTranslator()
	_, err := tr.TranslateAllele(context.Background(), "NC_999999.1:g.100A>T")
	assert.True(t, errors.Is(err, ErrUnresolvedAccession))
}

func TestTranslateAllele_IndelAnchorTrim(t *testing.T) {
	proxy := dataproxy.NewLocalProxy()
	proxy.AddAlias("NC_1", "acc1")
	// Sequence "AAAA" at [100,104): insertion REF=A ALT=ATAC shares the
	// leading A as its VCF anchor base.
	proxy.AddSequence("acc1", makeSeq(200, 'A'))
	tr := New(proxy)

	a, err := tr.TranslateAllele(context.Background(), "NC_1:100:A:ATAC")
	require.NoError(t, err)

	assert.Equal(t, int64(101), a.Location.Start, "anchor base trimmed from the front")
	assert.Equal(t, int64(101), a.Location.End, "pure insertion has an empty reference span")
	assert.Equal(t, "TAC", a.State.Sequence)
}
