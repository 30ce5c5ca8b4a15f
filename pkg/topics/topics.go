// Package topics caches per-leaf topic summaries fetched from an external
// collaborator. Entries are keyed by L0 node id and live for the process
// lifetime; at most one fetch is ever in flight per key, and a failed fetch
// is recorded per key without touching any other entry.
package topics

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
)

// Topic is one conversation summary attached to an L0 leaf.
type Topic struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Status is the lifecycle of a cache entry.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is the cached fetch outcome for one leaf. Topics is populated only
// when ready; Err only when the fetch failed.
type Entry struct {
	Status Status
	Topics []Topic
	Err    string
}

// Settled reports whether the fetch for this entry has completed.
func (e Entry) Settled() bool {
	return e.Status == StatusReady || e.Status == StatusError
}

// Fetcher is the external topic collaborator. Implementations must be safe
// for concurrent use and idempotent per node id.
type Fetcher interface {
	FetchTopics(ctx context.Context, nodeID string) ([]Topic, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, nodeID string) ([]Topic, error)

func (f FetcherFunc) FetchTopics(ctx context.Context, nodeID string) ([]Topic, error) {
	return f(ctx, nodeID)
}

// Option configures a Cache.
type Option func(*Cache)

// WithCallback runs fn after every completed fetch, on the fetching
// goroutine. Hosts with an event loop use it to deliver completions back
// into that loop.
func WithCallback(fn func(id string, e Entry)) Option {
	return func(c *Cache) { c.onDone = fn }
}

// WithTimeout bounds each collaborator call.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// WithParallelism caps concurrent Prefetch fetches. Default 4.
func WithParallelism(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.parallel = n
		}
	}
}

// Cache is the lazy topic store. The zero value is not usable; construct
// with NewCache.
type Cache struct {
	fetcher  Fetcher
	onDone   func(string, Entry)
	timeout  time.Duration
	parallel int

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]Entry
}

// NewCache wraps the collaborator in a cache. The fetcher must be non-nil.
func NewCache(f Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:  f,
		parallel: 4,
		entries:  make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for a leaf, if any fetch was ever started for it.
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of cache entries, in-flight ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot copies the whole cache, for diagnostics output.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.entries))
	for id, e := range c.entries {
		out[id] = e
	}
	return out
}

// Fetch returns the entry for the leaf, performing the collaborator call if
// this is the first request for the id. Concurrent callers for the same id
// coalesce onto one collaborator call and share its outcome. A settled entry
// (ready or error) is returned as-is without refetching. A cancelled context
// drops the in-flight entry and returns a zero Entry, so the id can be
// fetched again later.
func (c *Cache) Fetch(ctx context.Context, id string) Entry {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok && e.Settled() {
		c.mu.Unlock()
		metrics.TopicCache.Hit()
		return e
	}
	c.entries[id] = Entry{Status: StatusLoading}
	c.mu.Unlock()

	metrics.TopicCache.Miss()
	return c.fetchShared(ctx, id)
}

// fetchShared coalesces concurrent fetches for one id. The re-check inside
// the flight closes the window where a caller passed the entry check while
// the previous flight was settling.
func (c *Cache) fetchShared(ctx context.Context, id string) Entry {
	v, _, _ := c.group.Do(id, func() (interface{}, error) {
		c.mu.Lock()
		if e, ok := c.entries[id]; ok && e.Settled() {
			c.mu.Unlock()
			return e, nil
		}
		c.mu.Unlock()
		return c.resolve(ctx, id), nil
	})
	return v.(Entry)
}

// resolve performs the collaborator call and settles the entry.
func (c *Cache) resolve(ctx context.Context, id string) Entry {
	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := metrics.Timer(metrics.TopicFetch)
	topics, err := c.fetcher.FetchTopics(fetchCtx, id)
	done()

	if ctx.Err() != nil {
		// Shutdown, not failure: drop the loading entry so a later
		// request starts fresh.
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		debug.Log("topics: fetch for %q cancelled", id)
		return Entry{}
	}

	var e Entry
	if err != nil {
		e = Entry{Status: StatusError, Err: err.Error()}
		debug.Log("topics: fetch for %q failed: %v", id, err)
	} else {
		e = Entry{Status: StatusReady, Topics: topics}
	}

	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()

	if c.onDone != nil {
		c.onDone(id, e)
	}
	return e
}

// Request starts a fire-and-forget fetch for the leaf. Completion is
// observable through Get or the WithCallback hook. Ids with a settled entry
// or an in-flight fetch are no-ops.
func (c *Cache) Request(id string) {
	c.mu.Lock()
	if _, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return
	}
	c.entries[id] = Entry{Status: StatusLoading}
	c.mu.Unlock()

	go c.fetchShared(context.Background(), id)
}

// Refresh drops any settled entry for the id and fetches it again. An
// in-flight fetch is joined instead of restarted.
func (c *Cache) Refresh(ctx context.Context, id string) Entry {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok && e.Status == StatusLoading {
		c.mu.Unlock()
		return c.fetchShared(ctx, id)
	}
	delete(c.entries, id)
	c.mu.Unlock()
	return c.Fetch(ctx, id)
}

// Prefetch warms the cache for a batch of leaves with bounded parallelism.
// Individual fetch failures stay isolated in their entries; the returned
// error only reflects context cancellation.
func (c *Cache) Prefetch(ctx context.Context, ids []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.Fetch(ctx, id)
			return nil
		})
	}
	return g.Wait()
}
