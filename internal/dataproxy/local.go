package dataproxy

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LocalProxy is an in-memory DataProxy backed by a FASTA file and an
// alias table, grounded on the teacher's FASTALoader: same gzip
// autodetection and header-parsing shape, repointed from CDS/transcript
// sequences to whole reference sequences keyed by refget accession.
type LocalProxy struct {
	mu        sync.RWMutex
	sequences map[string]string // accession -> full sequence
	aliases   map[string]string // alias -> accession
}

// NewLocalProxy returns an empty LocalProxy; sequences and aliases are
// added with AddSequence/AddAlias or loaded in bulk with LoadFASTA.
func NewLocalProxy() *LocalProxy {
	return &LocalProxy{
		sequences: make(map[string]string),
		aliases:   make(map[string]string),
	}
}

// AddSequence registers a sequence directly under its refget accession.
func (p *LocalProxy) AddSequence(accession, sequence string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sequences[accession] = sequence
}

// AddAlias registers an alias (e.g. "chr7", "NC_000007.14") that resolves
// to accession.
func (p *LocalProxy) AddAlias(alias, accession string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aliases[alias] = accession
}

// LoadFASTA parses a (optionally gzipped) FASTA file and registers each
// record's sequence under its header token (no alias entry is added;
// TranslateSequenceIdentifier resolves the token to itself), matching the
// teacher's FASTALoader.Load gzip-autodetect-by-suffix behavior.
func (p *LocalProxy) LoadFASTA(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return p.parseFASTA(reader)
}

func (p *LocalProxy) parseFASTA(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	p.mu.Lock()
	defer p.mu.Unlock()

	var currentID string
	var currentSeq strings.Builder

	flush := func() {
		if currentID != "" {
			p.sequences[currentID] = currentSeq.String()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			currentID = parseFASTAHeaderID(line)
			currentSeq.Reset()
		} else {
			currentSeq.WriteString(strings.TrimSpace(line))
		}
	}
	flush()

	return scanner.Err()
}

// parseFASTAHeaderID extracts the accession token from a FASTA header,
// stopping at the first pipe or space.
func parseFASTAHeaderID(header string) string {
	header = strings.TrimPrefix(header, ">")
	if idx := strings.IndexAny(header, "| "); idx != -1 {
		return header[:idx]
	}
	return header
}

// TranslateSequenceIdentifier resolves alias to a refget accession,
// falling back to treating alias as the accession itself when no explicit
// alias mapping exists and a sequence is registered under that name.
func (p *LocalProxy) TranslateSequenceIdentifier(_ context.Context, alias string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if accession, ok := p.aliases[alias]; ok {
		return accession, nil
	}
	if _, ok := p.sequences[alias]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAccession, alias)
}

// GetSequence returns the [start, end) substring of the sequence stored
// under accession.
func (p *LocalProxy) GetSequence(_ context.Context, accession string, start, end int64) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seq, ok := p.sequences[accession]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccession, accession)
	}
	if start < 0 || end < start || end > int64(len(seq)) {
		return "", fmt.Errorf("%w: [%d,%d) outside sequence of length %d", ErrRangeOutOfBounds, start, end, len(seq))
	}
	return seq[start:end], nil
}

var _ DataProxy = (*LocalProxy)(nil)
