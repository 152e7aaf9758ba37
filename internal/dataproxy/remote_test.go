package dataproxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteProxy_TranslateSequenceIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sequence/translate/NC_000007.14", r.URL.Path)
		json.NewEncoder(w).Encode(sequenceIdentifierResponse{Accession: "acc1"})
	}))
	defer srv.Close()

	p := NewRemoteProxy(srv.URL, WithRetry(1, time.Millisecond))
	accession, err := p.TranslateSequenceIdentifier(context.Background(), "NC_000007.14")
	require.NoError(t, err)
	assert.Equal(t, "acc1", accession)
}

func TestRemoteProxy_TranslateSequenceIdentifier_CachesResult(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(sequenceIdentifierResponse{Accession: "acc1"})
	}))
	defer srv.Close()

	p := NewRemoteProxy(srv.URL, WithRetry(1, time.Millisecond))
	_, err := p.TranslateSequenceIdentifier(context.Background(), "alias1")
	require.NoError(t, err)
	_, err = p.TranslateSequenceIdentifier(context.Background(), "alias1")
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "second call should hit the LRU cache")
}

func TestRemoteProxy_TranslateSequenceIdentifier_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewRemoteProxy(srv.URL, WithRetry(1, time.Millisecond))
	_, err := p.TranslateSequenceIdentifier(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrUnknownAccession))
}

func TestRemoteProxy_GetSequence_RetriesOnUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(sequenceResponse{Sequence: "ACGT"})
	}))
	defer srv.Close()

	p := NewRemoteProxy(srv.URL, WithRetry(5, time.Millisecond))
	seq, err := p.GetSequence(context.Background(), "acc1", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRemoteProxy_GetSequence_RangeOutOfBounds_NoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := NewRemoteProxy(srv.URL, WithRetry(5, time.Millisecond))
	_, err := p.GetSequence(context.Background(), "acc1", 0, 4)
	assert.True(t, errors.Is(err, ErrRangeOutOfBounds))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "permanent errors must not be retried")
}
