package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
)

// handleSearch implements GET /search?accession=&start=&end= (spec.md
// §6.1, spec.md §4.7's overlap semantics).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accession := q.Get("accession")
	if accession == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("search: accession is required"))
		return
	}

	start, err := strconv.ParseInt(q.Get("start"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("search: invalid start: %w", err))
		return
	}
	end, err := strconv.ParseInt(q.Get("end"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("search: invalid end: %w", err))
		return
	}
	if end <= start {
		writeError(w, http.StatusBadRequest, fmt.Errorf("search: end must be greater than start"))
		return
	}

	results, err := s.av.SearchVariations(r.Context(), accession, start, end)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variations": results})
}
