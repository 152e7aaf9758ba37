package vcfingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/storage"
)

// RunFile runs the §4.8 ingest pipeline against inputPath end to end: it
// opens its own BatchContext around the whole file, flushes it when Ingest
// succeeds and discards its pending batches when Ingest fails, streams the
// annotated VCF to a temp file alongside outputPath, and atomically
// renames it into place only once the run and the flush both succeed (spec.md §5's "write-temp-then-
// rename" shared-resource policy for the async working directory). This
// is the shared entry point for both the synchronous /vcf handler and the
// async worker's TaskFunc.
func RunFile(ctx context.Context, av *anyvar.AnyVar, inputPath, outputPath string, workers int, logger *zap.SugaredLogger) (int, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("vcfingest: open input: %w", err)
	}
	defer in.Close()

	reader, err := NewReader(in)
	if err != nil {
		return 0, fmt.Errorf("vcfingest: read header: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("vcfingest: create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".vrs-ingest-*.vcf")
	if err != nil {
		return 0, fmt.Errorf("vcfingest: create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			os.Remove(tmpPath)
		}
	}()

	writer := NewWriter(tmp, reader.HeaderLines())

	bc, err := av.BatchContext(storage.DefaultBatchOptions())
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("vcfingest: open batch context: %w", err)
	}

	count, ingestErr := Ingest(ctx, av, bc, reader, writer, workers, logger)
	endErr := bc.End(ingestErr == nil)
	if closeErr := tmp.Close(); closeErr != nil && ingestErr == nil {
		ingestErr = fmt.Errorf("vcfingest: close temp output: %w", closeErr)
	}

	if ingestErr != nil {
		return count, ingestErr
	}
	if endErr != nil {
		return count, fmt.Errorf("vcfingest: flush batch: %w", endErr)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return count, fmt.Errorf("vcfingest: rename output into place: %w", err)
	}
	cleanupTmp = false

	return count, nil
}
