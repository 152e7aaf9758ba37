package dataproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// RemoteProxy is an HTTP-backed DataProxy against a SeqRepo-REST-like
// service, grounded on the teacher's RESTLoader (http.Client with a fixed
// timeout, JSON decode of the response body). Lookups are fronted by an
// LRU cache so repeated accession resolution within a bulk VCF run
// doesn't round-trip to the backing service every row, and transient
// failures are retried with backoff.
type RemoteProxy struct {
	baseURL    string
	httpClient *http.Client

	aliasCache    *lru.Cache[string, string]
	sequenceCache *lru.Cache[sequenceCacheKey, string]

	retryAttempts uint
	retryDelay    time.Duration
}

type sequenceCacheKey struct {
	accession  string
	start, end int64
}

// RemoteProxyOption configures a RemoteProxy at construction time.
type RemoteProxyOption func(*RemoteProxy)

// WithHTTPClient overrides the default 30s-timeout client.
func WithHTTPClient(c *http.Client) RemoteProxyOption {
	return func(p *RemoteProxy) { p.httpClient = c }
}

// WithCacheSize overrides the default 4096-entry LRU cache sizes for both
// the alias and sequence caches.
func WithCacheSize(n int) RemoteProxyOption {
	return func(p *RemoteProxy) {
		p.aliasCache, _ = lru.New[string, string](n)
		p.sequenceCache, _ = lru.New[sequenceCacheKey, string](n)
	}
}

// WithRetry overrides the default retry attempts/delay applied to
// Unavailable errors.
func WithRetry(attempts uint, delay time.Duration) RemoteProxyOption {
	return func(p *RemoteProxy) {
		p.retryAttempts = attempts
		p.retryDelay = delay
	}
}

// NewRemoteProxy returns a RemoteProxy against baseURL (a SeqRepo-REST-like
// service root).
func NewRemoteProxy(baseURL string, opts ...RemoteProxyOption) *RemoteProxy {
	aliasCache, _ := lru.New[string, string](4096)
	sequenceCache, _ := lru.New[sequenceCacheKey, string](4096)

	p := &RemoteProxy{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		aliasCache:    aliasCache,
		sequenceCache: sequenceCache,
		retryAttempts: 3,
		retryDelay:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type sequenceIdentifierResponse struct {
	Accession string `json:"accession"`
}

// TranslateSequenceIdentifier resolves alias via GET
// {baseURL}/sequence/translate/{alias}, retrying transient failures.
func (p *RemoteProxy) TranslateSequenceIdentifier(ctx context.Context, alias string) (string, error) {
	if accession, ok := p.aliasCache.Get(alias); ok {
		return accession, nil
	}

	var accession string
	err := retry.Do(
		func() error {
			resolved, err := p.fetchSequenceIdentifier(ctx, alias)
			if err != nil {
				return err
			}
			accession = resolved
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.retryAttempts),
		retry.Delay(p.retryDelay),
		retry.RetryIf(func(err error) bool { return isRetryable(err) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	p.aliasCache.Add(alias, accession)
	return accession, nil
}

func (p *RemoteProxy) fetchSequenceIdentifier(ctx context.Context, alias string) (string, error) {
	reqURL := fmt.Sprintf("%s/sequence/translate/%s", p.baseURL, url.PathEscape(alias))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrUnknownAccession, alias)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusGatewayTimeout, http.StatusBadGateway:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sequence translate: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded sequenceIdentifierResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode sequence identifier response: %w", err)
	}
	return decoded.Accession, nil
}

type sequenceResponse struct {
	Sequence string `json:"sequence"`
}

// GetSequence fetches GET {baseURL}/sequence/{accession}?start=&end=,
// retrying transient failures and caching by (accession, start, end).
func (p *RemoteProxy) GetSequence(ctx context.Context, accession string, start, end int64) (string, error) {
	key := sequenceCacheKey{accession: accession, start: start, end: end}
	if seq, ok := p.sequenceCache.Get(key); ok {
		return seq, nil
	}

	var seq string
	err := retry.Do(
		func() error {
			fetched, err := p.fetchSequence(ctx, accession, start, end)
			if err != nil {
				return err
			}
			seq = fetched
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.retryAttempts),
		retry.Delay(p.retryDelay),
		retry.RetryIf(func(err error) bool { return isRetryable(err) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	p.sequenceCache.Add(key, seq)
	return seq, nil
}

func (p *RemoteProxy) fetchSequence(ctx context.Context, accession string, start, end int64) (string, error) {
	reqURL := fmt.Sprintf("%s/sequence/%s?start=%d&end=%d", p.baseURL, url.PathEscape(accession), start, end)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrUnknownAccession, accession)
	case http.StatusUnprocessableEntity, http.StatusRequestedRangeNotSatisfiable:
		return "", fmt.Errorf("%w: [%d,%d) on %s", ErrRangeOutOfBounds, start, end, accession)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusGatewayTimeout, http.StatusBadGateway:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get sequence: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded sequenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode sequence response: %w", err)
	}
	return decoded.Sequence, nil
}

// isRetryable reports whether err should be retried: only the transient
// ErrUnavailable class, never UnknownAccession/RangeOutOfBounds.
func isRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

var _ DataProxy = (*RemoteProxy)(nil)
