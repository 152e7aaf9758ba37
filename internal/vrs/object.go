// Package vrs implements the GA4GH Variation Representation Specification
// object model: content-addressed sequence references, locations, and
// alleles, plus the variation-mapping and annotation tuples that travel
// alongside them.
package vrs

import "fmt"

// Kind discriminates the VRS object sum type.
type Kind string

const (
	KindSequenceReference Kind = "SequenceReference"
	KindSequenceLocation  Kind = "SequenceLocation"
	KindAllele            Kind = "Allele"
)

// SequenceReference identifies a biological sequence by its refget
// accession. Identity is the accession alone; once created it is
// immutable.
type SequenceReference struct {
	Type            Kind   `json:"type"`
	RefgetAccession string `json:"refgetAccession"`
}

// ID returns the object's canonical identifier. SequenceReference identity
// is the accession itself, not a derived digest.
func (r *SequenceReference) ID() string {
	return "ga4gh:SQ." + r.RefgetAccession
}

// LiteralSequenceExpression carries a literal nucleotide/amino-acid string
// as an Allele's state.
type LiteralSequenceExpression struct {
	Type     string `json:"type"`
	Sequence string `json:"sequence"`
}

// NewLiteralSequenceExpression builds a LiteralSequenceExpression.
func NewLiteralSequenceExpression(seq string) LiteralSequenceExpression {
	return LiteralSequenceExpression{Type: "LiteralSequenceExpression", Sequence: seq}
}

// SequenceLocation is a half-open, zero-based interval on a sequence.
// Identity is a content digest of its canonical encoding.
type SequenceLocation struct {
	Type              Kind              `json:"type"`
	SequenceReference SequenceReference `json:"sequenceReference"`
	Start             int64             `json:"start"`
	End               int64             `json:"end"`

	digest string // cached on first ID() call
}

// Validate checks the structural invariants from spec.md §3: start >= 0,
// end >= start.
func (l *SequenceLocation) Validate() error {
	if l.Start < 0 {
		return fmt.Errorf("sequence location: start %d is negative", l.Start)
	}
	if l.End < l.Start {
		return fmt.Errorf("sequence location: end %d is before start %d", l.End, l.Start)
	}
	return nil
}

// ID computes (and caches) the location's ga4gh:SL.<digest> identifier.
func (l *SequenceLocation) ID() (string, error) {
	if l.digest != "" {
		return "ga4gh:SL." + l.digest, nil
	}
	d, err := Digest(l.canonical())
	if err != nil {
		return "", fmt.Errorf("digest sequence location: %w", err)
	}
	l.digest = d
	return "ga4gh:SL." + d, nil
}

// canonical returns the attribute set that participates in the digest,
// per spec.md §3's "canonical JSON encoding of its attributes."
func (l *SequenceLocation) canonical() map[string]any {
	return map[string]any{
		"type": string(KindSequenceLocation),
		"sequenceReference": map[string]any{
			"type":            string(KindSequenceReference),
			"refgetAccession": l.SequenceReference.RefgetAccession,
		},
		"start": l.Start,
		"end":   l.End,
	}
}

// Allele is a specific sequence state at a specific location. Identity is
// a content digest of its canonical encoding.
type Allele struct {
	Type     Kind                      `json:"type"`
	Location SequenceLocation          `json:"location"`
	State    LiteralSequenceExpression `json:"state"`

	digest string
}

// ID computes (and caches) the allele's ga4gh:VA.<digest> identifier.
func (a *Allele) ID() (string, error) {
	if a.digest != "" {
		return "ga4gh:VA." + a.digest, nil
	}
	locID, err := a.Location.ID()
	if err != nil {
		return "", err
	}
	d, err := Digest(map[string]any{
		"type":     string(KindAllele),
		"location": locID,
		"state": map[string]any{
			"type":     a.State.Type,
			"sequence": a.State.Sequence,
		},
	})
	if err != nil {
		return "", fmt.Errorf("digest allele: %w", err)
	}
	a.digest = d
	return "ga4gh:VA." + d, nil
}

// Validate checks the allele's nested location.
func (a *Allele) Validate() error {
	return a.Location.Validate()
}

// MappingType enumerates the kinds of VariationMapping.
type MappingType string

const (
	MappingLiftover     MappingType = "liftover"
	MappingTranscription MappingType = "transcription"
)

// VariationMapping is a directed (source -> dest) relationship between two
// object identifiers.
type VariationMapping struct {
	SourceID    string      `json:"sourceId"`
	DestID      string      `json:"destId"`
	MappingType MappingType `json:"mappingType"`
}

// Annotation is an opaque (object_id, annotation_type, annotation_value)
// tuple. Multiple annotations with the same (object_id, annotation_type)
// may coexist.
type Annotation struct {
	ObjectID        string `json:"objectId"`
	AnnotationType  string `json:"annotationType"`
	AnnotationValue any    `json:"annotationValue"`
}
