// Package annotsource gives AnyVar's opaque annotation attachment
// (spec.md §4.3 put_annotation) a pluggable-producer shape, grounded on
// the teacher's internal/annotate.AnnotationSource interface
// (internal/datasource/oncokb, internal/datasource/alphamissense):
// instead of a caller hand-building every annotation, a Source inspects
// a registered VrsObject and proposes annotation values for it.
package annotsource

import "github.com/anyvario/anyvar/internal/vrs"

// ColumnDef describes one value a Source contributes, mirroring the
// teacher's annotate.ColumnDef.
type ColumnDef struct {
	Name        string
	Description string
}

// Source adds external data to a VRS object as it is registered.
type Source interface {
	// Name identifies the source, e.g. "clinvar".
	Name() string
	// Version identifies the data vintage a source was built from.
	Version() string
	// Columns lists the annotation types this source produces.
	Columns() []ColumnDef
	// Annotate inspects obj and returns zero or more annotation values
	// keyed by annotation type; an empty map means nothing to attach.
	Annotate(obj vrs.VrsObject) map[string]any
}

// Registry holds the Sources AnyVar consults when an object is put
// (spec.md §4.3's put_annotation is caller-driven; a Registry lets
// AnyVar also auto-attach annotations instead of requiring every caller
// to know every source).
type Registry struct {
	sources []Source
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds s to the registry.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	return r.sources
}

// Annotate runs every registered source over obj, returning one
// vrs.Annotation per non-empty value a source produces for objectID.
func (r *Registry) Annotate(objectID string, obj vrs.VrsObject) []vrs.Annotation {
	var out []vrs.Annotation
	for _, s := range r.sources {
		for annotationType, value := range s.Annotate(obj) {
			out = append(out, vrs.Annotation{
				ObjectID:       objectID,
				AnnotationType: s.Name() + "." + annotationType,
				AnnotationValue: value,
			})
		}
	}
	return out
}
