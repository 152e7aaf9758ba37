package vcfingest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
)

// WorkItem is a parsed, already single-allele Variant queued for
// translation and registration.
type WorkItem struct {
	Seq     int
	Variant *Variant
}

// WorkResult is the outcome of registering one WorkItem's reference and
// alternate alleles (spec.md §4.8 step 3: "For REF and each ALT,
// construct a canonical definition string... and submit to Translator").
type WorkResult struct {
	Seq     int
	Variant *Variant
	RefID   string
	AltID   string
	// Err is set only for a fatal (storage, not translation) failure,
	// which aborts the whole Ingest run; a translation failure instead
	// yields an empty RefID/AltID slot (spec.md §4.8 step 3).
	Err error
}

// isTranslationFailure reports whether err is one of the Translator's own
// error kinds (malformed/ambiguous/unresolvable definition) as opposed to
// a Storage failure underneath a successful translation.
func isTranslationFailure(err error) bool {
	return errors.Is(err, translate.ErrUnknownNomenclature) ||
		errors.Is(err, translate.ErrUnresolvedAccession) ||
		errors.Is(err, translate.ErrTranslation)
}

// ParallelRegister translates and registers the REF and ALT allele of
// each item using a pool of workers, sending results to the returned
// channel in arrival order (grounded on internal/annotate/parallel.go's
// ParallelAnnotate; use OrderedCollect to restore sequence order). If
// workers <= 0, runtime.NumCPU() is used. A definition that fails
// translation yields an empty id for that slot and a warning logged to
// logger rather than aborting the item (spec.md §4.8 step 3); logger may
// be nil.
func ParallelRegister(ctx context.Context, items <-chan WorkItem, av *anyvar.AnyVar, bc *storage.BatchContext, workers int, logger *zap.SugaredLogger) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	results := make(chan WorkResult, 2*workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				v := item.Variant
				refDef := fmt.Sprintf("%s-%d-%s-%s", v.Chrom, v.Pos, v.Ref, v.Ref)
				altDef := fmt.Sprintf("%s-%d-%s-%s", v.Chrom, v.Pos, v.Ref, v.Alt)

				refID, refErr := av.RegisterBatched(ctx, refDef, bc)
				if refErr != nil {
					if !isTranslationFailure(refErr) {
						results <- WorkResult{Seq: item.Seq, Variant: v, Err: fmt.Errorf("register reference allele %s: %w", refDef, refErr)}
						continue
					}
					logger.Warnw("vcf ingest: reference allele translation failed, emitting empty id",
						"chrom", v.Chrom, "pos", v.Pos, "ref", v.Ref, "error", refErr)
					refID = ""
				}

				altID, altErr := av.RegisterBatched(ctx, altDef, bc)
				if altErr != nil {
					if !isTranslationFailure(altErr) {
						results <- WorkResult{Seq: item.Seq, Variant: v, Err: fmt.Errorf("register alternate allele %s: %w", altDef, altErr)}
						continue
					}
					logger.Warnw("vcf ingest: alternate allele translation failed, emitting empty id",
						"chrom", v.Chrom, "pos", v.Pos, "ref", v.Ref, "alt", v.Alt, "error", altErr)
					altID = ""
				}

				results <- WorkResult{Seq: item.Seq, Variant: v, RefID: refID, AltID: altID}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in ascending sequence-number
// order, buffering out-of-order arrivals (grounded on
// internal/annotate/parallel.go's OrderedCollect). Blocks until results
// closes. If fn returns an error, remaining results are drained (to
// unblock producing workers) and the error is returned.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r
		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}
	return nil
}

// Ingest reads every variant from r, splits multi-allelic rows, registers
// each resulting allele's VRS identifier via av inside bc (a BatchContext
// opened by the caller, per spec.md §4.8's "opens a single BatchContext
// around the whole file") using workers concurrent translators, and
// writes an annotated VCF to out carrying a VRS_Allele_IDs INFO field
// listing the reference allele's id first, then each alternate's, in ALT
// order. Returns the number of alleles processed (REF plus each ALT of
// every input row, after multi-allelic splitting). Per-allele
// translation failures are tolerated (empty id, logged warning); only
// storage or I/O errors abort the run.
func Ingest(ctx context.Context, av *anyvar.AnyVar, bc *storage.BatchContext, reader *Reader, writer *Writer, workers int, logger *zap.SugaredLogger) (int, error) {
	if err := writer.WriteHeader(); err != nil {
		return 0, err
	}

	items := make(chan WorkItem, 64)
	var readErr error
	go func() {
		defer close(items)
		seq := 0
		for {
			v, err := reader.Next()
			if err != nil {
				readErr = fmt.Errorf("vcfingest: read input: %w", err)
				return
			}
			if v == nil {
				return
			}
			for _, split := range SplitMultiAllelic(v) {
				select {
				case items <- WorkItem{Seq: seq, Variant: split}:
					seq++
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	results := ParallelRegister(ctx, items, av, bc, workers, logger)

	count := 0
	// rowBuf accumulates the VRS ids for alleles belonging to the same
	// (chrom, pos, ref) row so a multi-allelic row is written once; refID
	// is recorded on first sight and shared across every ALT of the row.
	var rowBuf *Variant
	var refID string
	var altIDs []string
	flush := func() error {
		if rowBuf == nil {
			return nil
		}
		ids := append([]string{refID}, altIDs...)
		if err := writer.Write(rowBuf, ids); err != nil {
			return err
		}
		rowBuf, refID, altIDs = nil, "", nil
		return nil
	}

	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		if r.Err != nil {
			return r.Err
		}
		if rowBuf != nil && (rowBuf.Chrom != r.Variant.Chrom || rowBuf.Pos != r.Variant.Pos || rowBuf.Ref != r.Variant.Ref) {
			if err := flush(); err != nil {
				return err
			}
		}
		if rowBuf == nil {
			v := *r.Variant
			rowBuf = &v
			refID = r.RefID
		} else {
			rowBuf.Alt = rowBuf.Alt + "," + r.Variant.Alt
		}
		altIDs = append(altIDs, r.AltID)
		return nil
	})
	if err != nil {
		return count, err
	}
	if err := flush(); err != nil {
		return count, err
	}
	if readErr != nil {
		return count, readErr
	}
	if err := ctx.Err(); err != nil {
		return count, errors.New("vcfingest: ingest cancelled: " + err.Error())
	}
	return count, writer.Flush()
}
