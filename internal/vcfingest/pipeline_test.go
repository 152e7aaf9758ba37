package vcfingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/dataproxy"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
)

func newTestIngestAnyVar(t *testing.T) (*anyvar.AnyVar, *storage.BatchContext) {
	t.Helper()
	proxy := dataproxy.NewLocalProxy()
	proxy.AddAlias("7", "refseq7")
	proxy.AddSequence("refseq7", strings.Repeat("A", 140753400))

	store, err := storage.OpenDuckDB("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	av := anyvar.New(translate.New(proxy), store)
	bc, err := av.BatchContext(storage.DefaultBatchOptions())
	require.NoError(t, err)
	t.Cleanup(func() { bc.End(true) })

	return av, bc
}

func TestIngest_EndToEnd(t *testing.T) {
	av, bc := newTestIngestAnyVar(t)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"7\t140753335\t.\tA\tT\t.\tPASS\t.\n" +
		"7\t140753340\t.\tA\tG,T\t30\tPASS\tDP=5\n"

	reader, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)
	defer reader.Close()

	var out bytes.Buffer
	writer := NewWriter(&out, reader.HeaderLines())

	count, err := Ingest(context.Background(), av, bc, reader, writer, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "3 alleles across 2 VCF rows, one multi-allelic")

	result := out.String()
	assert.Contains(t, result, "VRS_Allele_IDs=ga4gh:VA.")
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	var dataLines []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "#") {
			dataLines = append(dataLines, l)
		}
	}
	require.Len(t, dataLines, 2, "multi-allelic row collapses back into a single output line")

	firstFields := strings.Split(dataLines[0], "\t")
	firstIDs := strings.TrimPrefix(strings.Split(firstFields[7], ";")[0], "VRS_Allele_IDs=")
	assert.Len(t, strings.Split(firstIDs, ","), 2, "single-alt row gets a REF id and an ALT id")

	secondFields := strings.Split(dataLines[1], "\t")
	ids := strings.TrimPrefix(strings.Split(secondFields[7], ";")[1], "VRS_Allele_IDs=")
	assert.Len(t, strings.Split(ids, ","), 3, "REF plus both alts of the multi-allelic row get an id")
}

func TestIngest_TranslationErrorToleratesEmptyID(t *testing.T) {
	av, bc := newTestIngestAnyVar(t)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"UNKNOWN_CHROM\t1\t.\tA\tT\t.\tPASS\t.\n"

	reader, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)
	defer reader.Close()

	var out bytes.Buffer
	writer := NewWriter(&out, reader.HeaderLines())

	count, err := Ingest(context.Background(), av, bc, reader, writer, 1, nil)
	require.NoError(t, err, "a translation failure on one allele must not abort the row")
	assert.Equal(t, 1, count)

	result := out.String()
	assert.Contains(t, result, "VRS_Allele_IDs=,", "unresolvable accession yields an empty id for that slot")
}

func TestIngest_MalformedRowPropagatesError(t *testing.T) {
	av, bc := newTestIngestAnyVar(t)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"7\t140753335\t.\tA\tT\t.\tPASS\t.\n" +
		"7\t140753340\tonly-five-columns\n" +
		"7\t140753345\t.\tA\tG\t.\tPASS\t.\n"

	reader, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)
	defer reader.Close()

	var out bytes.Buffer
	writer := NewWriter(&out, reader.HeaderLines())

	_, err = Ingest(context.Background(), av, bc, reader, writer, 1, nil)
	require.Error(t, err, "a malformed row must abort the run rather than silently truncate the output")
	assert.Contains(t, err.Error(), "expected at least 8 columns")
}
