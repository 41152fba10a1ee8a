// Package hostcache maps firewall config names to their self-reported
// hostnames. Entries carry a TTL and persist to a small JSON file so
// process restarts reuse them until expiry. Queries hit the firewall's
// management plane, so the cache exists to keep hostname tagging from
// doubling every poll's request count.
package hostcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pastats/pastats/internal/logger"
)

// Entry is one cached hostname with its resolution timestamp.
type Entry struct {
	Hostname   string    `json:"hostname"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// FetchFunc performs a live hostname lookup for one firewall.
type FetchFunc func(ctx context.Context) (string, error)

// Cache is a TTL, file-backed hostname cache. Resolutions for the same
// firewall are serialized so concurrent workers never race duplicate
// live lookups; distinct firewalls resolve independently.
type Cache struct {
	path string
	ttl  time.Duration
	log  logger.Logger

	mu       sync.Mutex
	entries  map[string]Entry
	inflight map[string]*sync.Mutex

	// now is swappable for TTL tests.
	now func() time.Time
}

// New creates a cache backed by the JSON file at path. A missing or
// corrupt file yields an empty cache rather than an error; the backing
// store is an optimization, never a dependency.
func New(path string, ttl time.Duration, log logger.Logger) *Cache {
	if log == nil {
		log = logger.Noop()
	}
	c := &Cache{
		path:     path,
		ttl:      ttl,
		log:      log,
		entries:  make(map[string]Entry),
		inflight: make(map[string]*sync.Mutex),
		now:      time.Now,
	}
	c.load()
	return c
}

// Resolve returns the hostname for a firewall. Fresh cache entries are
// returned without invoking fetch. On a miss or expiry, fetch runs and
// its result is stored and persisted. If fetch fails and a stale entry
// exists, the stale hostname is returned; a slightly outdated tag beats
// a missing one. With no fallback available the fetch error surfaces.
func (c *Cache) Resolve(ctx context.Context, firewall string, fetch FetchFunc) (string, error) {
	lock := c.identityLock(firewall)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	entry, ok := c.entries[firewall]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.ResolvedAt) < c.ttl {
		return entry.Hostname, nil
	}

	hostname, err := fetch(ctx)
	if err != nil {
		if ok {
			c.log.Warn("hostname refresh failed for %s, using stale entry %q: %v", firewall, entry.Hostname, err)
			return entry.Hostname, nil
		}
		return "", err
	}

	c.mu.Lock()
	c.entries[firewall] = Entry{Hostname: hostname, ResolvedAt: c.now()}
	c.persistLocked()
	c.mu.Unlock()

	c.log.Debug("refreshed hostname for %s: %s", firewall, hostname)
	return hostname, nil
}

// Invalidate drops the entry for a firewall, forcing the next Resolve
// to perform a live lookup.
func (c *Cache) Invalidate(firewall string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[firewall]; ok {
		delete(c.entries, firewall)
		c.persistLocked()
	}
}

// Entries returns a copy of the current cache contents.
func (c *Cache) Entries() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// identityLock returns the per-firewall mutex, creating it on first use.
func (c *Cache) identityLock(firewall string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.inflight[firewall]
	if !ok {
		lock = &sync.Mutex{}
		c.inflight[firewall] = lock
	}
	return lock
}

// load reads the backing file. Corruption is logged and discarded.
func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("cannot read hostname cache %s: %v", c.path, err)
		}
		return
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.log.Warn("hostname cache %s is corrupt, starting empty: %v", c.path, err)
		return
	}
	c.entries = entries
	c.log.Debug("loaded %d hostname cache entries from %s", len(entries), c.path)
}

// persistLocked writes the cache atomically. Callers hold c.mu.
// Persistence failures are logged, not returned: the in-memory cache
// stays correct either way.
func (c *Cache) persistLocked() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		c.log.Warn("cannot encode hostname cache: %v", err)
		return
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.log.Warn("cannot create hostname cache dir: %v", err)
			return
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		c.log.Warn("cannot write hostname cache: %v", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.log.Warn("cannot replace hostname cache: %v", err)
	}
}
