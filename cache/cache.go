/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/store"
	"github.com/acronis/go-respcache/ttl"
)

// Stats is a read-only snapshot of a backend.
type Stats struct {
	Size         int            `json:"size"`
	MaxSize      int            `json:"maxSize"`
	LRUEnabled   bool           `json:"lruEnabled"`
	AccessCounts map[string]int `json:"accessCounts"`
}

// Options represents options for the cache.
type Options struct {
	// Logger is used for reporting evictions and storage failures. Nil disables logging.
	Logger log.FieldLogger

	// MetricsCollector is used to collect statistics about cache usage. Nil disables metrics.
	MetricsCollector MetricsCollector

	// Clock is used for TTL stamping and expiry checks. Nil means time.Now.
	Clock ttl.Clock

	// BackendConfigs holds the standing configuration of backends.
	// Backends missing in the map get DefaultBackendConfig.
	BackendConfigs map[backend.Backend]BackendConfig

	// Namespace is prepended to keys of persistent backends. Empty means DefaultNamespace.
	Namespace string

	// LocalMedium stores entries of the local persistent backend. Nil means an in-process MapMedium.
	LocalMedium store.Medium

	// SessionMedium stores entries of the session persistent backend. Nil means an in-process MapMedium.
	SessionMedium store.Medium
}

// SetOption customizes a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	backendConfig *BackendConfig
}

// WithBackendConfig overrides the standing configuration of the backend for a single Set call.
func WithBackendConfig(bc BackendConfig) SetOption {
	return func(o *setOptions) {
		o.backendConfig = &bc
	}
}

// Cache is a response cache with TTL expiry and LRU eviction over independent backends.
// Every backend has its own store, recency tracker, configuration and lock.
type Cache[V any] struct {
	partitions map[backend.Backend]*partition[V]
}

// New creates a new Cache with the provided options.
// Keys already present in persistent media are tracked in the order of their storage time.
func New[V any](opts Options) (*Cache[V], error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	metricsCollector := opts.MetricsCollector
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	localMedium := opts.LocalMedium
	if localMedium == nil {
		localMedium = store.NewMapMedium(0)
	}
	sessionMedium := opts.SessionMedium
	if sessionMedium == nil {
		sessionMedium = store.NewMapMedium(0)
	}

	localStore, err := store.NewPersistent[V](localMedium, namespace)
	if err != nil {
		return nil, fmt.Errorf("create local persistent store: %w", err)
	}
	sessionStore, err := store.NewPersistent[V](sessionMedium, namespace)
	if err != nil {
		return nil, fmt.Errorf("create session persistent store: %w", err)
	}
	stores := map[backend.Backend]store.Store[V]{
		backend.Memory:            store.NewMemory[V](),
		backend.LocalPersistent:   localStore,
		backend.SessionPersistent: sessionStore,
	}

	c := &Cache[V]{partitions: make(map[backend.Backend]*partition[V], len(stores))}
	for _, b := range backend.All {
		bc := DefaultBackendConfig()
		if cfg, ok := opts.BackendConfigs[b]; ok {
			bc = cfg
		}
		if err = bc.validate(); err != nil {
			return nil, fmt.Errorf("%s backend: %w", b, err)
		}
		p := newPartition[V](b, stores[b], bc, ttl.NewPolicy(opts.Clock), logger, metricsCollector)
		if b.IsPersistent() {
			if err = p.warmUp(); err != nil {
				return nil, fmt.Errorf("load %s backend: %w", b, err)
			}
		}
		c.partitions[b] = p
	}
	return c, nil
}

// NewWithConfig creates a new Cache from the loaded configuration.
// The local persistent backend is stored in cfg.LocalPersistent.Dir,
// the session persistent backend in memory limited by cfg.SessionPersistent.Quota.
func NewWithConfig[V any](cfg *Config, logger log.FieldLogger, metricsCollector MetricsCollector) (*Cache[V], error) {
	localMedium, err := store.NewDirMedium(cfg.LocalPersistent.Dir)
	if err != nil {
		return nil, err
	}
	return New[V](Options{
		Logger:           logger,
		MetricsCollector: metricsCollector,
		BackendConfigs:   cfg.BackendConfigs(),
		Namespace:        cfg.Namespace,
		LocalMedium:      localMedium,
		SessionMedium:    store.NewMapMedium(uint64(cfg.SessionPersistent.Quota)),
	})
}

// Configure changes the standing configuration of the backend and returns the number of evicted entries.
// If LRU is enabled and the new max size is below the number of tracked entries,
// the least recently used ones are evicted immediately.
func (c *Cache[V]) Configure(b backend.Backend, upd Update) (evicted int, err error) {
	p, err := c.partition(b)
	if err != nil {
		return 0, err
	}
	return p.configure(upd)
}

// ConfigureMemoryCache changes the standing configuration of the memory backend.
func (c *Cache[V]) ConfigureMemoryCache(upd Update) (evicted int, err error) {
	return c.Configure(backend.Memory, upd)
}

// Set stores the value under the key in the backend.
// A non-positive entryTTL means the entry never expires.
// If the backend is bounded and LRU is enabled, the least recently used entries are evicted after insert.
// Storage write failures are returned wrapped with store.ErrStorageWrite, the key is not tracked in this case.
func (c *Cache[V]) Set(key string, value V, entryTTL time.Duration, b backend.Backend, opts ...SetOption) error {
	p, err := c.partition(b)
	if err != nil {
		return err
	}
	var so setOptions
	for _, opt := range opts {
		opt(&so)
	}
	if so.backendConfig != nil {
		if err = so.backendConfig.validate(); err != nil {
			return err
		}
	}
	return p.set(key, value, entryTTL, so.backendConfig)
}

// Get returns the value stored under the key.
// Expired and undecodable entries are removed and reported as not found.
// The only returned error is an invalid backend one.
func (c *Cache[V]) Get(key string, b backend.Backend) (value V, found bool, err error) {
	p, err := c.partition(b)
	if err != nil {
		return value, false, err
	}
	value, found = p.get(key)
	return value, found, nil
}

// Remove deletes the entry and reports whether it was tracked.
func (c *Cache[V]) Remove(key string, b backend.Backend) (bool, error) {
	p, err := c.partition(b)
	if err != nil {
		return false, err
	}
	return p.remove(key)
}

// EvictLRU evicts the least recently used entries until at most targetSize entries are tracked.
// It works regardless of whether LRU is enabled and returns the number of evicted entries.
func (c *Cache[V]) EvictLRU(b backend.Backend, targetSize int) (int, error) {
	p, err := c.partition(b)
	if err != nil {
		return 0, err
	}
	if targetSize < 0 {
		targetSize = 0
	}
	return p.evictLRU(targetSize), nil
}

// Clear removes all entries, recency and access information of the backend.
func (c *Cache[V]) Clear(b backend.Backend) error {
	p, err := c.partition(b)
	if err != nil {
		return err
	}
	return p.clear()
}

// Stats returns a snapshot of the backend state.
func (c *Cache[V]) Stats(b backend.Backend) (Stats, error) {
	p, err := c.partition(b)
	if err != nil {
		return Stats{}, err
	}
	return p.stats()
}

// Keys returns tracked keys of the backend from the least to the most recently used.
func (c *Cache[V]) Keys(b backend.Backend) ([]string, error) {
	p, err := c.partition(b)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Keys(), nil
}

// BackendConfig returns the standing configuration of the backend.
func (c *Cache[V]) BackendConfig(b backend.Backend) (BackendConfig, error) {
	p, err := c.partition(b)
	if err != nil {
		return BackendConfig{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg, nil
}

func (c *Cache[V]) partition(b backend.Backend) (*partition[V], error) {
	canonical, err := b.Normalize()
	if err != nil {
		return nil, err
	}
	p, ok := c.partitions[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %q", backend.ErrInvalidBackend, b)
	}
	return p, nil
}

// IsInvalidBackend reports whether err is caused by an unrecognized backend.
func IsInvalidBackend(err error) bool {
	return errors.Is(err, backend.ErrInvalidBackend)
}
