// Package translate implements the Translator contract (spec.md §4.2):
// parsing a variant definition string in one of three nomenclatures
// (HGVS, SPDI, gnomAD/VCF) into a normalized vrs.Allele with its refget
// accession resolved through a DataProxy.
package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anyvario/anyvar/internal/dataproxy"
	"github.com/anyvario/anyvar/internal/vrs"
)

var (
	// ErrUnknownNomenclature marks a definition string matching none of
	// the three supported grammars.
	ErrUnknownNomenclature = errors.New("translate: unknown nomenclature")
	// ErrUnresolvedAccession marks a definition whose accession/alias
	// could not be resolved through the DataProxy.
	ErrUnresolvedAccession = errors.New("translate: unresolved accession")
	// ErrTranslation marks an ambiguous or malformed definition that
	// parsed under a recognized grammar but failed validation.
	ErrTranslation = errors.New("translate: translation error")
)

// Translator is the single-operation contract spec.md §4.2 calls for.
type Translator interface {
	TranslateAllele(ctx context.Context, definition string) (*vrs.Allele, error)
}

// VRSTranslator is the one implementation, dispatching a definition
// string to the HGVS, SPDI, or gnomAD/VCF grammar by shape.
type VRSTranslator struct {
	proxy dataproxy.DataProxy
}

// New returns a VRSTranslator resolving accessions through proxy.
func New(proxy dataproxy.DataProxy) *VRSTranslator {
	return &VRSTranslator{proxy: proxy}
}

// hgvsGenomicPattern matches the subset of HGVS genomic substitution
// notation spec.md's examples use: "NC_000010.11:g.87894077C>T". Indel
// forms (del/ins/dup) are intentionally out of scope here; see
// DESIGN.md's normalization simplification note.
var hgvsGenomicPattern = regexp.MustCompile(`^(?P<accession>[^:]+):g\.(?P<pos>\d+)(?P<ref>[ACGTNacgtn]+)>(?P<alt>[ACGTNacgtn]+)$`)

// spdiPattern matches "accession:position:ref:alt" (0-based position,
// spec.md's SPDI example: "NC_000007.14:140753335:A:T").
var spdiPattern = regexp.MustCompile(`^([^:]+):(\d+):([ACGTNacgtn]*):([ACGTNacgtn]*)$`)

// gnomadPattern matches "chrom-pos-ref-alt" (1-based position, spec.md's
// example: "7-140753335-A-T").
var gnomadPattern = regexp.MustCompile(`^([^-]+)-(\d+)-([ACGTNacgtn]+)-([ACGTNacgtn]+)$`)

// TranslateAllele parses definition under whichever of the three
// nomenclatures it matches and returns a normalized Allele with computed
// digests (spec.md §4.2).
func (t *VRSTranslator) TranslateAllele(ctx context.Context, definition string) (*vrs.Allele, error) {
	definition = strings.TrimSpace(definition)

	switch {
	case hgvsGenomicPattern.MatchString(definition):
		return t.translateHGVS(ctx, definition)
	case spdiPattern.MatchString(definition):
		return t.translateSPDI(ctx, definition)
	case gnomadPattern.MatchString(definition):
		return t.translateGnomAD(ctx, definition)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNomenclature, definition)
	}
}

func (t *VRSTranslator) translateHGVS(ctx context.Context, definition string) (*vrs.Allele, error) {
	m := hgvsGenomicPattern.FindStringSubmatch(definition)
	accession, posStr, ref, alt := m[1], m[2], m[3], m[4]

	pos, err := strconv.ParseInt(posStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid position %q", ErrTranslation, posStr)
	}

	// HGVS g. positions are 1-based; half-open zero-based start is pos-1.
	return t.buildAllele(ctx, accession, pos-1, pos-1+int64(len(ref)), strings.ToUpper(alt))
}

func (t *VRSTranslator) translateSPDI(ctx context.Context, definition string) (*vrs.Allele, error) {
	m := spdiPattern.FindStringSubmatch(definition)
	accession, posStr, ref, alt := m[1], m[2], m[3], m[4]

	pos, err := strconv.ParseInt(posStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid position %q", ErrTranslation, posStr)
	}

	// SPDI positions are already 0-based.
	return t.buildAllele(ctx, accession, pos, pos+int64(len(ref)), strings.ToUpper(alt))
}

func (t *VRSTranslator) translateGnomAD(ctx context.Context, definition string) (*vrs.Allele, error) {
	m := gnomadPattern.FindStringSubmatch(definition)
	chrom, posStr, ref, alt := m[1], m[2], m[3], m[4]

	pos, err := strconv.ParseInt(posStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid position %q", ErrTranslation, posStr)
	}

	// gnomAD/VCF positions are 1-based; half-open zero-based start is
	// pos-1. chrom here is an alias (e.g. "7") resolved via the proxy.
	return t.buildAllele(ctx, chrom, pos-1, pos-1+int64(len(ref)), strings.ToUpper(alt))
}

// buildAllele resolves accession through the proxy, trims a shared indel
// anchor base (see normalize), and assembles a digest-bearing Allele.
func (t *VRSTranslator) buildAllele(ctx context.Context, aliasOrAccession string, start, end int64, alt string) (*vrs.Allele, error) {
	accession, err := t.proxy.TranslateSequenceIdentifier(ctx, aliasOrAccession)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvedAccession, err)
	}

	start, end, alt, err = t.normalize(ctx, accession, start, end, alt)
	if err != nil {
		return nil, err
	}

	loc := vrs.SequenceLocation{
		Type: vrs.KindSequenceLocation,
		SequenceReference: vrs.SequenceReference{
			Type:            vrs.KindSequenceReference,
			RefgetAccession: accession,
		},
		Start: start,
		End:   end,
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	a := &vrs.Allele{
		Type:     vrs.KindAllele,
		Location: loc,
		State:    vrs.NewLiteralSequenceExpression(alt),
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	// Force digest computation now so callers get a fully normalized,
	// identifier-bearing Allele per spec.md §4.2's contract.
	if _, err := a.ID(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	return a, nil
}

// normalize trims a shared leading anchor base common to VCF-style indel
// notation (REF=A ALT=ATAC -> empty reference span, alt "TAC"). SNVs and
// other equal-length changes pass through unchanged. Only that one anchor
// base is trimmed: the remaining insertion or deletion is not shifted
// across repeat runs, so it is not reduced to a fully-justified
// representation (see DESIGN.md).
func (t *VRSTranslator) normalize(ctx context.Context, accession string, start, end int64, alt string) (int64, int64, string, error) {
	refLen := end - start
	altLen := int64(len(alt))

	if refLen == altLen {
		return start, end, alt, nil
	}

	ref, err := t.proxy.GetSequence(ctx, accession, start, end)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	if len(ref) > 0 && len(alt) > 0 && strings.EqualFold(ref[:1], alt[:1]) {
		return start + 1, end, alt[1:], nil
	}

	return start, end, alt, nil
}

var _ Translator = (*VRSTranslator)(nil)
