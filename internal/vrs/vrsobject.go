package vrs

// VrsObject is the tagged-union sum type spec.md §9 calls for:
// Allele | SequenceLocation | SequenceReference. An Allele embeds its
// SequenceLocation, and a SequenceLocation its SequenceReference, by
// value; the Allele digest uses the location's identifier in place of the
// nested object. No cyclic references exist by construction.
type VrsObject interface {
	// ObjectKind reports which concrete VRS type this object is.
	ObjectKind() Kind
}

func (a *Allele) ObjectKind() Kind            { return KindAllele }
func (l *SequenceLocation) ObjectKind() Kind  { return KindSequenceLocation }
func (r *SequenceReference) ObjectKind() Kind { return KindSequenceReference }

// ObjectID returns the canonical identifier for any VrsObject, dispatching
// on its concrete type. Returns an error when a SequenceLocation/Allele
// digest cannot be computed, or for any other concrete type.
func ObjectID(o VrsObject) (string, error) {
	switch v := o.(type) {
	case *Allele:
		return v.ID()
	case *SequenceLocation:
		return v.ID()
	case *SequenceReference:
		return v.ID(), nil
	default:
		return "", errUnknownKind(o)
	}
}

func errUnknownKind(o VrsObject) error {
	return &unknownKindError{o}
}

type unknownKindError struct{ o VrsObject }

func (e *unknownKindError) Error() string {
	if e.o == nil {
		return "vrs: unknown object kind: <nil>"
	}
	return "vrs: unknown object kind: " + string(e.o.ObjectKind())
}
