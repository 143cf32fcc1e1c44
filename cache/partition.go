/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/lru"
	"github.com/acronis/go-respcache/store"
	"github.com/acronis/go-respcache/ttl"
)

// partition is the state of a single backend. mu guards the store, the tracker and cfg together,
// since set, get and eviction all read and then write them.
type partition[V any] struct {
	backend backend.Backend

	mu      sync.Mutex
	store   store.Store[V]
	tracker *lru.Tracker
	cfg     BackendConfig

	ttl              ttl.Policy
	logger           log.FieldLogger
	metricsCollector MetricsCollector
}

func newPartition[V any](
	b backend.Backend, s store.Store[V], cfg BackendConfig, policy ttl.Policy, logger log.FieldLogger, mc MetricsCollector,
) *partition[V] {
	return &partition[V]{
		backend:          b,
		store:            s,
		tracker:          lru.NewTracker(),
		cfg:              cfg,
		ttl:              policy,
		logger:           logger.With(log.String("backend", string(b))),
		metricsCollector: mc,
	}
}

// warmUp tracks entries which are already in the store, oldest first.
// Expired and undecodable entries are dropped.
func (p *partition[V]) warmUp() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.store.Keys()
	if err != nil {
		return err
	}
	type storedKey struct {
		key      string
		storedAt time.Time
	}
	alive := make([]storedKey, 0, len(keys))
	for _, key := range keys {
		entry, found, getErr := p.store.Get(key)
		if getErr != nil {
			p.logger.Warn("dropping unreadable cache entry", log.String("key", key), log.Error(getErr))
			p.removeFromStore(key)
			continue
		}
		if !found {
			continue
		}
		if p.ttl.IsExpired(entry.StoredAt, entry.TTL) {
			p.removeFromStore(key)
			continue
		}
		alive = append(alive, storedKey{key, entry.StoredAt})
	}
	sort.SliceStable(alive, func(i, j int) bool {
		if alive[i].storedAt.Equal(alive[j].storedAt) {
			return alive[i].key < alive[j].key
		}
		return alive[i].storedAt.Before(alive[j].storedAt)
	})
	for _, sk := range alive {
		p.tracker.RecordInsert(sk.key)
	}
	if p.cfg.bounded() {
		p.evictTo(p.cfg.MaxSize)
	}
	p.metricsCollector.SetAmount(p.backend, p.tracker.Len())
	if len(alive) > 0 {
		p.logger.Info("cache entries loaded from persistent storage", log.Int("entries", p.tracker.Len()))
	}
	return nil
}

func (p *partition[V]) configure(upd Update) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := upd.apply(p.cfg)
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	p.cfg = cfg
	p.logger.Info("cache backend configured",
		log.Int("max_size", cfg.MaxSize), log.Bool("lru_enabled", cfg.EnableLRU))

	if !cfg.bounded() {
		return 0, nil
	}
	return p.evictTo(cfg.MaxSize), nil
}

func (p *partition[V]) set(key string, value V, entryTTL time.Duration, override *BackendConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.cfg
	if override != nil {
		cfg = *override
	}

	entry := store.Entry[V]{Value: value, StoredAt: p.ttl.Stamp(), TTL: entryTTL}
	if err := p.store.Put(key, entry); err != nil {
		if errors.Is(err, store.ErrStorageWrite) {
			p.metricsCollector.IncWriteFailures(p.backend)
		}
		p.logger.Error("failed to store cache entry", log.String("key", key), log.Error(err))
		return fmt.Errorf("set %q in %s cache: %w", key, p.backend, err)
	}
	p.tracker.RecordInsert(key)

	if cfg.bounded() {
		p.evictTo(cfg.MaxSize)
	}
	p.metricsCollector.SetAmount(p.backend, p.tracker.Len())
	return nil
}

func (p *partition[V]) get(key string) (value V, found bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, found, err := p.store.Get(key)
	if err != nil {
		if errors.Is(err, store.ErrSerialization) {
			p.logger.Warn("dropping undecodable cache entry", log.String("key", key), log.Error(err))
			p.drop(key)
		} else {
			p.logger.Warn("failed to read cache entry", log.String("key", key), log.Error(err))
		}
		p.metricsCollector.IncMisses(p.backend)
		return value, false
	}
	if !found {
		if p.tracker.Has(key) { // removed from the medium behind our back
			p.tracker.Untrack(key)
			p.metricsCollector.SetAmount(p.backend, p.tracker.Len())
		}
		p.metricsCollector.IncMisses(p.backend)
		return value, false
	}
	if p.ttl.IsExpired(entry.StoredAt, entry.TTL) {
		p.drop(key)
		p.metricsCollector.IncMisses(p.backend)
		return value, false
	}
	p.tracker.RecordAccess(key)
	p.metricsCollector.IncHits(p.backend)
	return entry.Value, true
}

func (p *partition[V]) remove(key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracked := p.tracker.Has(key)
	if err := p.store.Remove(key); err != nil {
		return tracked, fmt.Errorf("remove %q from %s cache: %w", key, p.backend, err)
	}
	p.tracker.Untrack(key)
	p.metricsCollector.SetAmount(p.backend, p.tracker.Len())
	return tracked, nil
}

func (p *partition[V]) evictLRU(targetSize int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evictTo(targetSize)
}

func (p *partition[V]) clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.store.Clear()
	p.tracker.Reset()
	p.metricsCollector.SetAmount(p.backend, 0)
	if err != nil {
		return fmt.Errorf("clear %s cache: %w", p.backend, err)
	}
	return nil
}

func (p *partition[V]) stats() (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.store.Keys()
	if err != nil {
		return Stats{}, fmt.Errorf("list keys of %s cache: %w", p.backend, err)
	}
	size := 0
	for _, key := range keys {
		if p.tracker.Has(key) {
			size++
		}
	}
	return Stats{
		Size:         size,
		MaxSize:      p.cfg.MaxSize,
		LRUEnabled:   p.cfg.EnableLRU,
		AccessCounts: p.tracker.AccessCounts(),
	}, nil
}

// evictTo removes the least recently used entries until at most targetSize keys are tracked.
// Must be called with mu held.
func (p *partition[V]) evictTo(targetSize int) int {
	evicted := 0
	for p.tracker.Len() > targetSize {
		key, ok := p.tracker.LeastRecentlyUsed()
		if !ok {
			break
		}
		p.drop(key)
		evicted++
		p.logger.Debug("cache entry evicted", log.String("key", key))
	}
	if evicted > 0 {
		p.metricsCollector.AddEvictions(p.backend, evicted)
	}
	return evicted
}

// drop removes the key from both the store and the tracker. Must be called with mu held.
func (p *partition[V]) drop(key string) {
	p.removeFromStore(key)
	p.tracker.Untrack(key)
	p.metricsCollector.SetAmount(p.backend, p.tracker.Len())
}

func (p *partition[V]) removeFromStore(key string) {
	if err := p.store.Remove(key); err != nil {
		p.logger.Error("failed to remove cache entry from storage", log.String("key", key), log.Error(err))
	}
}
