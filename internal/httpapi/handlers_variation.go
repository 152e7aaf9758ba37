package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anyvario/anyvar/internal/vrs"
)

type registerRequest struct {
	Definition string `json:"definition"`
}

type registerResponse struct {
	ObjectID string   `json:"object_id"`
	Object   any      `json:"object"`
	Messages []string `json:"messages"`
}

// handleRegisterVariation implements PUT /variation (spec.md §6.1).
func (s *Server) handleRegisterVariation(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.av.Register(r.Context(), req.Definition)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	obj, _, err := s.av.GetObject(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{ObjectID: id, Object: obj, Messages: nil})
}

// handleGetVariation implements GET /variation/{id}.
func (s *Server) handleGetVariation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	obj, ok, err := s.av.GetObject(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errObjectNotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"object_id": id, "object": obj})
}

type putMappingRequest struct {
	DestID      string          `json:"dest_id"`
	MappingType vrs.MappingType `json:"mapping_type"`
}

// handlePutMapping implements PUT /variation/{id}/mappings.
func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req putMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, ok, err := s.av.GetObject(r.Context(), id); err != nil {
		writeError(w, statusForError(err), err)
		return
	} else if !ok {
		writeError(w, http.StatusNotFound, errObjectNotFound(id))
		return
	}

	m := vrs.VariationMapping{SourceID: id, DestID: req.DestID, MappingType: req.MappingType}
	if err := s.av.PutMapping(r.Context(), m); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

// handleListMappings implements GET /variation/{id}/mappings/{type}.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var filter *vrs.MappingType
	if t := chi.URLParam(r, "type"); t != "" {
		mt := vrs.MappingType(t)
		filter = &mt
	}

	mappings, err := s.av.GetObjectMappings(r.Context(), id, filter)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": mappings})
}

type putAnnotationRequest struct {
	AnnotationType  string `json:"annotation_type"`
	AnnotationValue any    `json:"annotation_value"`
}

// handlePutAnnotation implements POST /variation/{id}/annotations.
func (s *Server) handlePutAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req putAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, ok, err := s.av.GetObject(r.Context(), id); err != nil {
		writeError(w, statusForError(err), err)
		return
	} else if !ok {
		writeError(w, http.StatusNotFound, errObjectNotFound(id))
		return
	}

	a := vrs.Annotation{ObjectID: id, AnnotationType: req.AnnotationType, AnnotationValue: req.AnnotationValue}
	if err := s.av.PutAnnotation(r.Context(), a); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

// handleListAnnotations implements GET /variation/{id}/annotations[/{type}].
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var filter *string
	if t := chi.URLParam(r, "type"); t != "" {
		filter = &t
	}

	anns, err := s.av.GetObjectAnnotations(r.Context(), id, filter)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"annotations": anns})
}
