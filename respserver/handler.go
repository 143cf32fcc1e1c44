/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package respserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/cache"
)

// Cache is the part of cache.Cache served over RESP. Values are opaque byte strings.
type Cache interface {
	Set(key string, value []byte, entryTTL time.Duration, b backend.Backend, opts ...cache.SetOption) error
	Get(key string, b backend.Backend) ([]byte, bool, error)
	Remove(key string, b backend.Backend) (bool, error)
	EvictLRU(b backend.Backend, targetSize int) (int, error)
	Clear(b backend.Backend) error
	Stats(b backend.Backend) (cache.Stats, error)
	Keys(b backend.Backend) ([]string, error)
	Configure(b backend.Backend, upd cache.Update) (int, error)
}

var _ Cache = (*cache.Cache[[]byte])(nil)

const replyOK = "OK"

var errSyntax = errors.New("syntax error")

// command is a parsed RESP command. name is upper-cased.
type command struct {
	name string
	args [][]byte
}

func (c command) arg(i int) string {
	return string(c.args[i])
}

type replyKind int

const (
	replyStatus replyKind = iota
	replyError
	replyInt
	replyBulk
	replyNull
	replyArray
)

// reply mirrors what a Redis server writes for non pub/sub commands.
type reply struct {
	kind      replyKind
	text      string // status or error message
	integer   int
	bulk      []byte
	array     []string
	closeConn bool
}

func statusReply(s string) reply    { return reply{kind: replyStatus, text: s} }
func bulkReply(b []byte) reply      { return reply{kind: replyBulk, bulk: b} }
func intReply(i int) reply          { return reply{kind: replyInt, integer: i} }
func nullReply() reply              { return reply{kind: replyNull} }
func arrayReply(a []string) reply   { return reply{kind: replyArray, array: a} }
func closeConnReply(s string) reply { return reply{kind: replyStatus, text: s, closeConn: true} }

func errorReply(err error) reply {
	return reply{kind: replyError, text: "ERR " + err.Error()}
}

func wrongArgsReply(name string) reply {
	return errorReply(fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(name)))
}

type handler struct {
	cache Cache
}

func (h *handler) handle(cmd command) reply {
	switch cmd.name {
	case "PING":
		return h.ping(cmd)
	case "QUIT":
		return closeConnReply(replyOK)
	case "GET":
		return h.get(cmd)
	case "SET":
		return h.set(cmd)
	case "DEL":
		return h.del(cmd)
	case "EVICT":
		return h.evict(cmd)
	case "FLUSHDB":
		return h.flush(cmd)
	case "CACHESTATS":
		return h.stats(cmd)
	case "CACHEKEYS":
		return h.keys(cmd)
	case "CACHECONFIG":
		return h.configure(cmd)
	default:
		return errorReply(fmt.Errorf("unknown command '%s'", strings.ToLower(cmd.name)))
	}
}

func (h *handler) ping(cmd command) reply {
	switch len(cmd.args) {
	case 0:
		return statusReply("PONG")
	case 1:
		return bulkReply(cmd.args[0])
	default:
		return wrongArgsReply(cmd.name)
	}
}

// GET key [backend]
func (h *handler) get(cmd command) reply {
	if len(cmd.args) < 1 || len(cmd.args) > 2 {
		return wrongArgsReply(cmd.name)
	}
	b, err := optionalBackend(cmd.args[1:])
	if err != nil {
		return errorReply(err)
	}
	value, found, err := h.cache.Get(cmd.arg(0), b)
	if err != nil {
		return errorReply(err)
	}
	if !found {
		return nullReply()
	}
	return bulkReply(value)
}

// SET key value [PX milliseconds | EX seconds] [BACKEND backend]
func (h *handler) set(cmd command) reply {
	if len(cmd.args) < 2 {
		return wrongArgsReply(cmd.name)
	}
	var (
		entryTTL time.Duration
		b        = backend.Memory
	)
	for i := 2; i < len(cmd.args); i += 2 {
		if i+1 >= len(cmd.args) {
			return errorReply(errSyntax)
		}
		opt, val := strings.ToUpper(cmd.arg(i)), cmd.arg(i+1)
		switch opt {
		case "PX", "EX":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil || n <= 0 {
				return errorReply(fmt.Errorf("invalid expire time in '%s' command", strings.ToLower(cmd.name)))
			}
			entryTTL = time.Duration(n) * time.Millisecond
			if opt == "EX" {
				entryTTL = time.Duration(n) * time.Second
			}
		case "BACKEND":
			parsed, err := backend.Parse(val)
			if err != nil {
				return errorReply(err)
			}
			b = parsed
		default:
			return errorReply(errSyntax)
		}
	}
	if err := h.cache.Set(cmd.arg(0), cmd.args[1], entryTTL, b); err != nil {
		return errorReply(err)
	}
	return statusReply(replyOK)
}

// DEL key [key ...] [BACKEND backend]
func (h *handler) del(cmd command) reply {
	keys := cmd.args
	b := backend.Memory
	if n := len(keys); n >= 3 && strings.EqualFold(string(keys[n-2]), "BACKEND") {
		parsed, err := backend.Parse(string(keys[n-1]))
		if err != nil {
			return errorReply(err)
		}
		b, keys = parsed, keys[:n-2]
	}
	if len(keys) == 0 {
		return wrongArgsReply(cmd.name)
	}
	removed := 0
	for _, key := range keys {
		ok, err := h.cache.Remove(string(key), b)
		if err != nil {
			return errorReply(err)
		}
		if ok {
			removed++
		}
	}
	return intReply(removed)
}

// EVICT backend targetSize
func (h *handler) evict(cmd command) reply {
	if len(cmd.args) != 2 {
		return wrongArgsReply(cmd.name)
	}
	b, err := backend.Parse(cmd.arg(0))
	if err != nil {
		return errorReply(err)
	}
	target, err := strconv.Atoi(cmd.arg(1))
	if err != nil || target < 0 {
		return errorReply(errors.New("value is not an integer or out of range"))
	}
	evicted, err := h.cache.EvictLRU(b, target)
	if err != nil {
		return errorReply(err)
	}
	return intReply(evicted)
}

// FLUSHDB [backend], all backends are cleared if none is given.
func (h *handler) flush(cmd command) reply {
	if len(cmd.args) > 1 {
		return wrongArgsReply(cmd.name)
	}
	backends := backend.All
	if len(cmd.args) == 1 {
		b, err := backend.Parse(cmd.arg(0))
		if err != nil {
			return errorReply(err)
		}
		backends = []backend.Backend{b}
	}
	var errs []error
	for _, b := range backends {
		errs = append(errs, h.cache.Clear(b))
	}
	if err := errors.Join(errs...); err != nil {
		return errorReply(err)
	}
	return statusReply(replyOK)
}

// CACHESTATS [backend] replies with JSON.
func (h *handler) stats(cmd command) reply {
	if len(cmd.args) > 1 {
		return wrongArgsReply(cmd.name)
	}
	b, err := optionalBackend(cmd.args)
	if err != nil {
		return errorReply(err)
	}
	stats, err := h.cache.Stats(b)
	if err != nil {
		return errorReply(err)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return errorReply(err)
	}
	return bulkReply(data)
}

// CACHEKEYS [backend] replies with keys from the least to the most recently used.
func (h *handler) keys(cmd command) reply {
	if len(cmd.args) > 1 {
		return wrongArgsReply(cmd.name)
	}
	b, err := optionalBackend(cmd.args)
	if err != nil {
		return errorReply(err)
	}
	keys, err := h.cache.Keys(b)
	if err != nil {
		return errorReply(err)
	}
	return arrayReply(keys)
}

// CACHECONFIG backend MAXSIZE n | LRU on|off. MAXSIZE -1 removes the bound.
func (h *handler) configure(cmd command) reply {
	if len(cmd.args) != 3 {
		return wrongArgsReply(cmd.name)
	}
	b, err := backend.Parse(cmd.arg(0))
	if err != nil {
		return errorReply(err)
	}
	var upd cache.Update
	switch strings.ToUpper(cmd.arg(1)) {
	case "MAXSIZE":
		maxSize, convErr := strconv.Atoi(cmd.arg(2))
		if convErr != nil || maxSize < cache.Unbounded {
			return errorReply(errors.New("value is not an integer or out of range"))
		}
		upd.MaxSize = &maxSize
	case "LRU":
		var enabled bool
		switch strings.ToLower(cmd.arg(2)) {
		case "on", "yes", "1", "true":
			enabled = true
		case "off", "no", "0", "false":
		default:
			return errorReply(errSyntax)
		}
		upd.EnableLRU = &enabled
	default:
		return errorReply(errSyntax)
	}
	evicted, err := h.cache.Configure(b, upd)
	if err != nil {
		return errorReply(err)
	}
	return intReply(evicted)
}

func optionalBackend(args [][]byte) (backend.Backend, error) {
	if len(args) == 0 {
		return backend.Memory, nil
	}
	return backend.Parse(string(args[0]))
}
