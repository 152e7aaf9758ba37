package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anyvario/anyvar/internal/dataproxy"
	"github.com/anyvario/anyvar/internal/jobqueue"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusForError maps a domain error to the HTTP status spec.md §7/§8
// assigns it. Defaults to 500 for anything unrecognized.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, dataproxy.ErrUnknownAccession):
		return http.StatusNotFound
	case errors.Is(err, translate.ErrUnknownNomenclature), errors.Is(err, translate.ErrUnresolvedAccession), errors.Is(err, translate.ErrTranslation), errors.Is(err, dataproxy.ErrRangeOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, dataproxy.ErrUnavailable), errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrBatchAborted):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrBackpressureTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, jobqueue.ErrRunIDConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
