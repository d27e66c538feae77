// Package cached wraps an event source with a local on-disk cache of
// per-block raw events.
package cached

import (
	"context"

	"github.com/basilisk-nexus/eventnexus/cache/kvstore"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/metrics"
	"github.com/basilisk-nexus/eventnexus/storage"
)

type Source struct {
	chain  common.ChainName
	db     kvstore.KVStore
	source storage.EventSource
}

var _ storage.EventSource = (*Source)(nil)

// NewSource caches the events of src in a pogreb store under cacheDir.
func NewSource(chain common.ChainName, cacheDir string, src storage.EventSource, logger *log.Logger) (*Source, error) {
	db, err := kvstore.OpenKVStore(
		logger.WithModule("cached-source").With("chain", chain),
		cacheDir,
		common.Ptr(metrics.NewDefaultStorageMetrics(string(chain))),
	)
	if err != nil {
		return nil, err
	}
	return NewSourceWithStore(chain, db, src), nil
}

// NewSourceWithStore wraps src with an already open store.
func NewSourceWithStore(chain common.ChainName, db kvstore.KVStore, src storage.EventSource) *Source {
	return &Source{
		chain:  chain,
		db:     db,
		source: src,
	}
}

// EventsAt implements storage.EventSource. Blocks are immutable once
// produced, so every height is cached; exhausted heights are not.
func (s *Source) EventsAt(ctx context.Context, height uint64) ([]common.RawEvent, error) {
	return kvstore.GetSliceFromCacheOrCall(
		s.db, false,
		kvstore.GenerateCacheKey("EventsAt", s.chain, height),
		func() ([]common.RawEvent, error) { return s.source.EventsAt(ctx, height) },
	)
}

// FirstHeight implements storage.EventSource. It is never cached.
func (s *Source) FirstHeight(ctx context.Context) (uint64, error) {
	return s.source.FirstHeight(ctx)
}

// LatestHeight implements storage.EventSource. It is never cached.
func (s *Source) LatestHeight(ctx context.Context) (uint64, error) {
	return s.source.LatestHeight(ctx)
}

func (s *Source) Name() string {
	return "cached-" + s.source.Name()
}

func (s *Source) Close() error {
	// Close all resources and return the first encountered error, if any.
	firstErr := s.source.Close()
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
