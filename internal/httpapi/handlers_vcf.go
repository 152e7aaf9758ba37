package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anyvario/anyvar/internal/jobqueue"
	"github.com/anyvario/anyvar/internal/vcfingest"
)

// handlePutVCF implements PUT /vcf (spec.md §6.1): bulk VCF ingest, run
// either inline or as an async job depending on enable_async.
func (s *Server) handlePutVCF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	async := q.Get("enable_async") == "true" || q.Get("enable_async") == "1"
	runID := q.Get("run_id")

	if s.workDir == "" {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("vcf: no working directory configured"))
		return
	}

	run := jobqueue.NewRun(runID, "", 0, time.Now())
	dir := filepath.Join(s.workDir, run.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("vcf: create working directory: %w", err))
		return
	}
	inputPath := filepath.Join(dir, "input.vcf")
	outputPath := filepath.Join(dir, "output.vcf")

	if err := writeUploadAtomically(inputPath, r.Body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("vcf: save upload: %w", err))
		return
	}
	run.InputPath = inputPath

	if !async {
		count, err := vcfingest.RunFile(r.Context(), s.av, inputPath, outputPath, s.vcfWorkers, s.logger)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("vcf: ingest: %w", err))
			return
		}
		s.logger.Infow("sync vcf ingest completed", "rows", count, "run_id", run.RunID)
		serveFile(w, outputPath)
		return
	}

	if s.broker == nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("vcf: async ingest requested but no broker configured"))
		return
	}

	if err := s.broker.Submit(r.Context(), run); err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	w.Header().Set("Location", "/vcf/"+run.RunID)
	w.Header().Set("Retry-After", "5")
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":         run.RunID,
		"status_message": "queued",
	})
}

// handleGetVCF implements GET /vcf/{run_id}: poll an async run (spec.md
// §4.9, §6.1).
func (s *Server) handleGetVCF(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	if s.broker == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("vcf: run %q unknown", runID))
		return
	}

	run, ok := s.broker.Get(runID)
	now := time.Now()
	if !ok || run.EffectiveStatus(now) == jobqueue.StatusExpired {
		writeError(w, http.StatusNotFound, fmt.Errorf("vcf: run %q unknown or expired", runID))
		return
	}

	switch run.EffectiveStatus(now) {
	case jobqueue.StatusPending, jobqueue.StatusRunning:
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusAccepted, map[string]any{"run_id": run.RunID, "status": string(run.Status)})
	case jobqueue.StatusCompleted:
		serveFile(w, run.OutputPath)
	case jobqueue.StatusFailed:
		writeError(w, s.failureStatus, fmt.Errorf("vcf: run %q failed: %s", run.RunID, run.ErrorMessage))
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("vcf: run %q unknown", runID))
	}
}

// writeUploadAtomically persists body to path via a write-temp-then-
// rename, matching spec.md §5's shared-resource policy for the async
// working directory.
func writeUploadAtomically(path string, body io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func serveFile(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("vcf: open result: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.Header().Set("Content-Type", "text/x-vcf")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
