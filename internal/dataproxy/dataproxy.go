// Package dataproxy fronts reference sequence data: resolving aliases to
// refget accessions and fetching sequence substrings, the two operations
// spec.md §4.1 calls for (DataProxy.translate_sequence_identifier and
// DataProxy.get_sequence).
package dataproxy

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownAccession marks an alias or accession the proxy has no
	// record of.
	ErrUnknownAccession = errors.New("dataproxy: unknown accession")
	// ErrRangeOutOfBounds marks a get_sequence request outside a known
	// sequence's length.
	ErrRangeOutOfBounds = errors.New("dataproxy: range out of bounds")
	// ErrUnavailable marks a transient failure; callers may retry with
	// backoff.
	ErrUnavailable = errors.New("dataproxy: unavailable")
)

// DataProxy is the reference-sequence lookup contract Translator and
// AnyVar depend on.
type DataProxy interface {
	// TranslateSequenceIdentifier maps a GenBank/RefSeq/assembly-chromosome
	// alias to its canonical refget accession.
	TranslateSequenceIdentifier(ctx context.Context, alias string) (string, error)
	// GetSequence returns the substring [start, end) of the sequence
	// identified by accession.
	GetSequence(ctx context.Context, accession string, start, end int64) (string, error)
}

// WrapUnavailable annotates err as transient if it isn't already one of
// the proxy's sentinel kinds, so callers using errors.Is against
// ErrUnavailable see consistent behavior across implementations.
func WrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnknownAccession) || errors.Is(err, ErrRangeOutOfBounds) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
