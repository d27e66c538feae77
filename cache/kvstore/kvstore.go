// Package kvstore implements an on-disk key-value cache.
package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/akrylysov/pogreb"
	"github.com/fxamacker/cbor/v2"

	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/metrics"
)

// A key in the KVStore.
type CacheKey []byte

var keyEncoding = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// GenerateCacheKey derives a key from a method name and its parameters.
// Equal inputs always give equal keys.
func GenerateCacheKey(methodName string, params ...interface{}) CacheKey {
	key, err := keyEncoding.Marshal([]interface{}{methodName, params})
	if err != nil {
		panic(fmt.Sprintf("kvstore: unencodable cache key for %s: %v", methodName, err))
	}
	return key
}

// Pretty returns a human-readable form of the key, for logs only.
func (cacheKey CacheKey) Pretty() string {
	var parsed interface{}
	pretty := fmt.Sprintf("%x", []byte(cacheKey))
	if err := cbor.Unmarshal(cacheKey, &parsed); err == nil {
		pretty = fmt.Sprintf("%+v", parsed)
	}
	if len(pretty) > 100 {
		pretty = pretty[:95] + "[...]"
	}
	return pretty
}

// KVStore is a byte-level key-value store. Typed access is provided by the
// generic helpers below.
type KVStore interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Close() error
}

type pogrebKVStore struct {
	db *pogreb.DB

	path    string
	logger  *log.Logger
	metrics *metrics.StorageMetrics // nil disables metrics

	// Set once the store is open. The store is opened in a background
	// goroutine.
	initialized atomic.Bool
}

var _ KVStore = (*pogrebKVStore)(nil)

// Get implements KVStore. It does not record cache read metrics; use the
// GetFromCacheOrCall helpers for that.
func (s *pogrebKVStore) Get(key []byte) ([]byte, error) {
	if !s.initialized.Load() {
		return nil, fmt.Errorf("kvstore: not initialized yet")
	}
	return s.db.Get(key)
}

func (s *pogrebKVStore) Has(key []byte) (bool, error) {
	if !s.initialized.Load() {
		return false, nil
	}
	return s.db.Has(key)
}

// Put implements KVStore. Writes before the store is open are dropped.
func (s *pogrebKVStore) Put(key []byte, value []byte) error {
	if !s.initialized.Load() {
		s.logger.Debug("skipping write to uninitialized KVStore", "key", CacheKey(key).Pretty())
		return nil
	}
	return s.db.Put(key, value)
}

func (s *pogrebKVStore) Close() error {
	if !s.initialized.Load() {
		// A background reindex, if any, restarts on the next open.
		s.logger.Warn("skipping closing uninitialized KVStore")
		return nil
	}
	s.logger.Info("closing KVStore", "path", s.path)
	return s.db.Close()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// pruneBackups deletes pogreb index backups of backups. Pogreb renames stale
// indexes to <name>.bac on every crash recovery; repeated crash loops grow
// the names until the filesystem rejects them.
func (s *pogrebKVStore) pruneBackups() {
	if pathExists(filepath.Join(s.path, "lock")) {
		s.logger.Info("pogreb lock file found; store will be reindexed", "path", s.path)
	}
	files, err := filepath.Glob(filepath.Join(s.path, "*.bac.bac"))
	if err != nil {
		s.logger.Warn("failed to list pogreb backup files", "err", err)
		return
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			s.logger.Warn("failed to delete pogreb backup file", "file", f, "err", err)
		}
	}
}

func (s *pogrebKVStore) init() error {
	s.pruneBackups()

	s.logger.Info("(re)opening KVStore", "path", s.path)
	db, err := pogreb.Open(s.path, &pogreb.Options{BackgroundSyncInterval: -1})
	if err != nil {
		s.logger.Error("failed to initialize pogreb store", "err", err)
		return err
	}
	s.db = db
	s.initialized.Store(true)
	s.logger.Info("KVStore opened", "path", s.path, "entries", db.Count())
	return nil
}

// OpenTimeout bounds how long OpenKVStore waits for the store before
// continuing without a cache.
var OpenTimeout = 30 * time.Second

// OpenKVStore opens (or creates) the store at path. If opening takes longer
// than OpenTimeout, typically a full reindex after a crash, the store is
// returned uninitialized and starts serving once the reindex completes.
// m may be nil.
func OpenKVStore(logger *log.Logger, path string, m *metrics.StorageMetrics) (KVStore, error) {
	store := &pogrebKVStore{
		logger:  logger.WithModule("kvstore"),
		path:    path,
		metrics: m,
	}

	initErrCh := make(chan error, 1)
	go func() {
		initErrCh <- store.init()
	}()

	select {
	case err := <-initErrCh:
		if err != nil {
			return nil, err
		}
		return store, nil
	case <-time.After(OpenTimeout):
		logger.Warn("KVStore initialization timed out, continuing without cache while the database is reindexing in the background")
		return store, nil
	}
}

var errNoSuchKey = errors.New("no such key")

func increaseReadCounter(cache KVStore, status metrics.CacheReadStatus) {
	if s, ok := cache.(*pogrebKVStore); ok && s.metrics != nil {
		s.metrics.LocalCacheReads(status).Inc()
	}
}

func fetchTypedValue[Value any](cache KVStore, key CacheKey, value *Value) error {
	isCached, err := cache.Has(key)
	if err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusError)
		return err
	}
	if !isCached {
		increaseReadCounter(cache, metrics.CacheReadStatusMiss)
		return errNoSuchKey
	}
	raw, err := cache.Get(key)
	if err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusError)
		return fmt.Errorf("failed to fetch key %s from cache: %w", key.Pretty(), err)
	}
	if err = cbor.Unmarshal(raw, value); err != nil {
		increaseReadCounter(cache, metrics.CacheReadStatusBadValue)
		return fmt.Errorf("failed to unmarshal the value for key %s from cache into %T: %w", key.Pretty(), value, err)
	}
	increaseReadCounter(cache, metrics.CacheReadStatusHit)
	return nil
}

// GetFromCacheOrCall returns the cached value of key, or calls valueFunc and
// caches its result. With volatile set the cache is bypassed entirely.
func GetFromCacheOrCall[Value any](cache KVStore, volatile bool, key CacheKey, valueFunc func() (*Value, error)) (*Value, error) {
	if volatile {
		return valueFunc()
	}

	var cached Value
	switch err := fetchTypedValue(cache, key, &cached); {
	case err == nil:
		return &cached, nil
	case errors.Is(err, errNoSuchKey):
	default:
		if s, ok := cache.(*pogrebKVStore); ok {
			s.logger.Warn("error fetching from cache", "key", key.Pretty(), "err", err)
		}
	}

	computed, err := valueFunc()
	if err != nil {
		return nil, err
	}
	raw, err := cbor.Marshal(computed)
	if err != nil {
		return nil, fmt.Errorf("encoding %T for cache: %w", computed, err)
	}
	return computed, cache.Put(key, raw)
}

// GetSliceFromCacheOrCall is GetFromCacheOrCall for slice results.
func GetSliceFromCacheOrCall[Response any](cache KVStore, volatile bool, key CacheKey, valueFunc func() ([]Response, error)) ([]Response, error) {
	responsePtr, err := GetFromCacheOrCall(cache, volatile, key, func() (*[]Response, error) {
		response, err := valueFunc()
		if response == nil {
			return nil, err
		}
		return &response, err
	})
	if responsePtr == nil {
		return nil, err
	}
	return *responsePtr, err
}
