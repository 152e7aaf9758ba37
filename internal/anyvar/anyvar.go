// Package anyvar implements the AnyVar façade (spec.md §4.3): the single
// entry point that decomposes VRS objects into their constituent parts on
// write, reconstructs them on read, and orchestrates Translator + Storage.
package anyvar

import (
	"context"
	"fmt"

	"github.com/anyvario/anyvar/internal/annotsource"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
	"github.com/anyvario/anyvar/internal/vrs"
)

// AnyVar orchestrates a Translator and a Storage backend, matching the
// teacher's Annotator shape: a small struct wrapping a lookup dependency,
// with one primary operation and a handful of narrow supporting ones.
type AnyVar struct {
	translator translate.Translator
	store      storage.Storage
	sources    *annotsource.Registry
}

// New returns an AnyVar façade over store, with translation delegated to
// translator. Pass a nil translator if only registration of
// already-built VrsObjects (PutObject, PutObjectBatched) is needed;
// Register and RegisterBatched, which the VCF ingest path calls, then
// return an error.
func New(translator translate.Translator, store storage.Storage) *AnyVar {
	return &AnyVar{translator: translator, store: store, sources: annotsource.NewRegistry()}
}

// RegisterAnnotationSource adds s to the set of sources consulted every
// time an object is put, so registering a variant can auto-attach
// derived annotations (e.g. a ClinVar lookup) without every caller
// knowing every source (spec.md §4.3 put_annotation stays available for
// caller-driven annotation too).
func (av *AnyVar) RegisterAnnotationSource(s annotsource.Source) {
	av.sources.Register(s)
}

// Register parses definition via the Translator and puts the resulting
// Allele, returning its identifier. This is the HTTP registration
// operation's entry point (spec.md §6.1's PUT /variation).
func (av *AnyVar) Register(ctx context.Context, definition string) (string, error) {
	if av.translator == nil {
		return "", fmt.Errorf("anyvar: no translator configured")
	}
	a, err := av.translator.TranslateAllele(ctx, definition)
	if err != nil {
		return "", err
	}
	return av.PutObject(ctx, a)
}

// RegisterBatched is Register's counterpart for bulk ingest: translation
// still runs synchronously, but the resulting Allele is written through
// bc instead of directly to Storage (spec.md §4.8).
func (av *AnyVar) RegisterBatched(ctx context.Context, definition string, bc *storage.BatchContext) (string, error) {
	if av.translator == nil {
		return "", fmt.Errorf("anyvar: no translator configured")
	}
	a, err := av.translator.TranslateAllele(ctx, definition)
	if err != nil {
		return "", err
	}
	return av.PutObjectBatched(a, bc)
}

// objectWriter is the narrow write surface both the direct-to-Storage
// path and the batched-via-BatchContext path satisfy, so the decomposition
// logic in putObjectVia runs identically for both (spec.md §4.8: VCF
// ingest registers "through AnyVar inside a BatchContext", the same
// decompose-and-put semantics as a synchronous PutObject).
type objectWriter interface {
	putVRS(id string, obj vrs.VrsObject) error
	putAnnotation(a vrs.Annotation) error
}

type directWriter struct {
	ctx   context.Context
	store storage.Storage
}

func (w directWriter) putVRS(id string, obj vrs.VrsObject) error {
	return w.store.PutVRS(w.ctx, id, obj)
}

func (w directWriter) putAnnotation(a vrs.Annotation) error {
	return w.store.PutAnnotation(w.ctx, a)
}

type batchedWriter struct {
	bc *storage.BatchContext
}

func (w batchedWriter) putVRS(id string, obj vrs.VrsObject) error {
	return w.bc.PutVRS(id, obj)
}

func (w batchedWriter) putAnnotation(a vrs.Annotation) error {
	return w.bc.PutAnnotation(a)
}

// PutObject decomposes obj (an Allele decomposes into its Location and
// SequenceReference) and writes each piece to Storage, returning the
// top-level identifier. Idempotent: storage writes are keyed by content
// digest (spec.md §4.3).
func (av *AnyVar) PutObject(ctx context.Context, obj vrs.VrsObject) (string, error) {
	return av.putObjectVia(obj, directWriter{ctx: ctx, store: av.store})
}

// PutObjectBatched is PutObject's counterpart for bulk ingest: every
// decomposed write goes through bc (opened via BatchContext) instead of
// directly to Storage, so writes are buffered and flushed per spec.md
// §4.5/§4.6 rather than executed one-by-one.
func (av *AnyVar) PutObjectBatched(obj vrs.VrsObject, bc *storage.BatchContext) (string, error) {
	return av.putObjectVia(obj, batchedWriter{bc: bc})
}

func (av *AnyVar) putObjectVia(obj vrs.VrsObject, w objectWriter) (string, error) {
	switch v := obj.(type) {
	case *vrs.Allele:
		return av.putAlleleVia(v, w)
	case *vrs.SequenceLocation:
		id, err := v.ID()
		if err != nil {
			return "", err
		}
		if err := w.putVRS(id, v); err != nil {
			return "", err
		}
		return id, nil
	case *vrs.SequenceReference:
		id := v.ID()
		if err := w.putVRS(id, v); err != nil {
			return "", err
		}
		return id, nil
	default:
		return "", fmt.Errorf("anyvar: unsupported object kind %T", obj)
	}
}

func (av *AnyVar) putAlleleVia(a *vrs.Allele, w objectWriter) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	refID := a.Location.SequenceReference.ID()
	if err := w.putVRS(refID, &a.Location.SequenceReference); err != nil {
		return "", fmt.Errorf("put sequence reference: %w", err)
	}

	locID, err := a.Location.ID()
	if err != nil {
		return "", err
	}
	if err := w.putVRS(locID, &a.Location); err != nil {
		return "", fmt.Errorf("put sequence location: %w", err)
	}

	id, err := a.ID()
	if err != nil {
		return "", err
	}
	if err := w.putVRS(id, a); err != nil {
		return "", fmt.Errorf("put allele: %w", err)
	}

	for _, ann := range av.sources.Annotate(id, a) {
		if err := w.putAnnotation(ann); err != nil {
			return "", fmt.Errorf("put source annotation: %w", err)
		}
	}

	return id, nil
}

// GetObject dereferences id, reconstructing nested structures (spec.md
// §4.3). Returns (nil, false, nil) when absent.
func (av *AnyVar) GetObject(ctx context.Context, id string) (vrs.VrsObject, bool, error) {
	return av.store.GetVRS(ctx, id)
}

// PutMapping records a (source, dest, type) mapping.
func (av *AnyVar) PutMapping(ctx context.Context, m vrs.VariationMapping) error {
	return av.store.PutMapping(ctx, m)
}

// GetObjectMappings returns mappings with the given source id, optionally
// filtered by mapping type.
func (av *AnyVar) GetObjectMappings(ctx context.Context, objectID string, mappingType *vrs.MappingType) ([]vrs.VariationMapping, error) {
	return av.store.GetMappings(ctx, objectID, mappingType)
}

// PutAnnotation appends an annotation to an object.
func (av *AnyVar) PutAnnotation(ctx context.Context, a vrs.Annotation) error {
	return av.store.PutAnnotation(ctx, a)
}

// GetObjectAnnotations returns annotations for an object, optionally
// filtered by annotation type.
func (av *AnyVar) GetObjectAnnotations(ctx context.Context, objectID string, annotationType *string) ([]vrs.Annotation, error) {
	return av.store.GetAnnotations(ctx, objectID, annotationType)
}

// SearchVariations returns every Allele whose location has the given
// accession and whose [start, end) range intersects the query interval
// (spec.md §4.7), delegating to the backing Storage's own search path,
// the source of truth for durability.
func (av *AnyVar) SearchVariations(ctx context.Context, accession string, start, end int64) ([]vrs.Allele, error) {
	return av.store.Search(ctx, accession, start, end)
}

// BatchContext opens a scoped batched-write region (spec.md §4.3
// "batch_context()"), delegating to the backing Storage.
func (av *AnyVar) BatchContext(opts storage.BatchOptions) (*storage.BatchContext, error) {
	return av.store.BeginBatch(opts)
}
