package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/config"
	"github.com/anyvario/anyvar/internal/dataproxy"
	"github.com/anyvario/anyvar/internal/logging"
	"github.com/anyvario/anyvar/internal/storage"
	"github.com/anyvario/anyvar/internal/translate"
)

// buildDataProxy returns a RemoteProxy when dataproxy.remote_url is
// configured, otherwise a LocalProxy optionally preloaded from a FASTA
// file (spec.md §4.1: both are valid DataProxy implementations).
func buildDataProxy() (dataproxy.DataProxy, error) {
	if url := config.GetString(config.DataProxyRemoteURLKey); url != "" {
		return dataproxy.NewRemoteProxy(url), nil
	}

	local := dataproxy.NewLocalProxy()
	if path := config.GetString(config.DataProxyFASTAPathKey); path != "" {
		if err := local.LoadFASTA(path); err != nil {
			return nil, fmt.Errorf("load reference FASTA: %w", err)
		}
	}
	return local, nil
}

// buildStorage opens the Storage backend named by storage_uri: empty
// selects the stateless NoObjectStore, anything else is a DuckDB file
// path (spec.md §6.3: "empty string selects stateless NoObjectStore").
func buildStorage() (storage.Storage, error) {
	uri := config.GetString(config.StorageURIKey)
	if uri == "" {
		return storage.NewNoObjectStore(), nil
	}
	return storage.OpenDuckDB(uri)
}

// buildAnyVar wires a DataProxy, Translator, and Storage into a ready
// AnyVar façade.
func buildAnyVar() (*anyvar.AnyVar, storage.Storage, error) {
	proxy, err := buildDataProxy()
	if err != nil {
		return nil, nil, err
	}
	store, err := buildStorage()
	if err != nil {
		return nil, nil, err
	}
	return anyvar.New(translate.New(proxy), store), store, nil
}

func buildLogger() *zap.SugaredLogger {
	l, err := logging.New(false)
	if err != nil {
		return logging.Nop()
	}
	return l
}
