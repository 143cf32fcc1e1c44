/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/cache"
	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/store"
)

// Cache is the part of cache.Cache exposed by the admin API.
type Cache interface {
	Set(key string, value []byte, entryTTL time.Duration, b backend.Backend, opts ...cache.SetOption) error
	Get(key string, b backend.Backend) ([]byte, bool, error)
	Remove(key string, b backend.Backend) (bool, error)
	EvictLRU(b backend.Backend, targetSize int) (int, error)
	Clear(b backend.Backend) error
	Stats(b backend.Backend) (cache.Stats, error)
	Keys(b backend.Backend) ([]string, error)
	Configure(b backend.Backend, upd cache.Update) (int, error)
	BackendConfig(b backend.Backend) (cache.BackendConfig, error)
}

var _ Cache = (*cache.Cache[[]byte])(nil)

const (
	urlParamBackend = "backend"
	urlParamKey     = "key"
	queryParamTTL   = "ttl"

	maxRequestBodySize = 8 << 20
)

// ConfigResponseData is the body of backend configuration responses.
type ConfigResponseData struct {
	Config  cache.BackendConfig `json:"config"`
	Evicted int                 `json:"evicted"`
}

// EvictRequestData is the body of the evict request.
type EvictRequestData struct {
	TargetSize *int `json:"targetSize"`
}

// EvictResponseData is the body of the evict response.
type EvictResponseData struct {
	Evicted int `json:"evicted"`
}

// KeysResponseData lists tracked keys from the least to the most recently used.
type KeysResponseData struct {
	Keys []string `json:"keys"`
}

type handlers struct {
	cache  Cache
	logger log.FieldLogger
}

func (h *handlers) getStats(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	stats, err := h.cache.Stats(b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	respondJSON(rw, http.StatusOK, stats, logger)
}

func (h *handlers) getConfig(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	bc, err := h.cache.BackendConfig(b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	respondJSON(rw, http.StatusOK, ConfigResponseData{Config: bc}, logger)
}

func (h *handlers) putConfig(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	var upd cache.Update
	if err := decodeJSONBody(rw, r, &upd); err != nil {
		respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), logger)
		return
	}
	if upd.MaxSize != nil && *upd.MaxSize < cache.Unbounded {
		respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, "maxSize should be >= 0 or -1 (unbounded)", logger)
		return
	}
	evicted, err := h.cache.Configure(b, upd)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	bc, err := h.cache.BackendConfig(b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	respondJSON(rw, http.StatusOK, ConfigResponseData{Config: bc, Evicted: evicted}, logger)
}

func (h *handlers) evict(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	var req EvictRequestData
	if err := decodeJSONBody(rw, r, &req); err != nil {
		respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), logger)
		return
	}
	if req.TargetSize == nil || *req.TargetSize < 0 {
		respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, "targetSize is required and should be >= 0", logger)
		return
	}
	evicted, err := h.cache.EvictLRU(b, *req.TargetSize)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	respondJSON(rw, http.StatusOK, EvictResponseData{Evicted: evicted}, logger)
}

func (h *handlers) getKeys(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	keys, err := h.cache.Keys(b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	respondJSON(rw, http.StatusOK, KeysResponseData{Keys: keys}, logger)
}

func (h *handlers) clear(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	if err := h.cache.Clear(b); err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	logger.Info("cache backend cleared", log.String("backend", string(b)))
	rw.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getEntry(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	key := chi.URLParam(r, urlParamKey)
	value, found, err := h.cache.Get(key, b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	if !found {
		respondError(rw, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("key %q is not found", key), logger)
		return
	}
	rw.Header().Set("Content-Type", "application/octet-stream")
	rw.WriteHeader(http.StatusOK)
	if _, err = rw.Write(value); err != nil {
		logger.Error("error while writing response body", log.Error(err))
	}
}

func (h *handlers) putEntry(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	key := chi.URLParam(r, urlParamKey)

	var entryTTL time.Duration
	if ttlStr := r.URL.Query().Get(queryParamTTL); ttlStr != "" {
		var err error
		if entryTTL, err = time.ParseDuration(ttlStr); err != nil {
			respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("invalid ttl %q", ttlStr), logger)
			return
		}
	}

	value, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxRequestBodySize))
	if err != nil {
		respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, "unable to read request body", logger)
		return
	}
	if err = h.cache.Set(key, value, entryTTL, b); err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteEntry(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	b := backend.Backend(chi.URLParam(r, urlParamBackend))
	key := chi.URLParam(r, urlParamKey)
	removed, err := h.cache.Remove(key, b)
	if err != nil {
		h.respondCacheError(rw, err, logger)
		return
	}
	if !removed {
		respondError(rw, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("key %q is not found", key), logger)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *handlers) respondCacheError(rw http.ResponseWriter, err error, logger log.FieldLogger) {
	switch {
	case cache.IsInvalidBackend(err):
		respondError(rw, http.StatusBadRequest, ErrCodeInvalidBackend, err.Error(), logger)
	case errors.Is(err, store.ErrStorageWrite):
		respondError(rw, http.StatusInsufficientStorage, ErrCodeStorageWrite, err.Error(), logger)
	default:
		logger.Error("cache operation failed", log.Error(err))
		respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "", logger)
	}
}

func decodeJSONBody(rw http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxRequestBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
