// Package querycache keeps the named result sets of one application context
// and invalidates them when mutations may have changed their contents.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	key       Key
	value     any
	has       bool
	stale     bool
	fetchedAt time.Time
	// seq is bumped by every issued fetch and every invalidation; a fetch
	// stores its result only if seq is unchanged when it completes.
	seq uint64
	// epoch names the current flight so fetches issued after an
	// invalidation never join a flight issued before it.
	epoch uint64
}

type observer struct {
	pred Predicate
	fn   func(Key)
}

type Coordinator struct {
	mu        sync.Mutex
	entries   map[string]*entry
	clock     uint64
	flight    singleflight.Group
	observers map[uint64]observer
	nextObs   uint64
	maxAge    time.Duration
	staleTime map[string]time.Duration
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Coordinator)

// WithMaxAge makes entries older than d count as stale. Zero keeps entries
// fresh until invalidated.
func WithMaxAge(d time.Duration) Option {
	return func(c *Coordinator) { c.maxAge = d }
}

// WithStaleTimes sets how long entries under each named root stay fresh,
// overriding the max age for those roots. A zero duration makes every read
// of the root refetch; concurrent reads still share one load.
func WithStaleTimes(times map[string]time.Duration) Option {
	return func(c *Coordinator) {
		for root, d := range times {
			c.staleTime[root] = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func withClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		entries:   make(map[string]*entry),
		observers: make(map[uint64]observer),
		staleTime: make(map[string]time.Duration),
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) entryLocked(k Key) *entry {
	e, ok := c.entries[k.id()]
	if !ok {
		c.clock++
		e = &entry{key: append(Key(nil), k...), epoch: c.clock}
		c.entries[k.id()] = e
	}
	return e
}

func (c *Coordinator) freshLocked(e *entry) bool {
	if !e.has || e.stale {
		return false
	}
	if d, ok := c.staleTime[e.key.Root()]; ok {
		return c.now().Sub(e.fetchedAt) < d
	}
	return c.maxAge <= 0 || c.now().Sub(e.fetchedAt) < c.maxAge
}

// Fetch returns the cached value for key or loads it with fetch. Concurrent
// callers for the same key share one load.
func Fetch[T any](ctx context.Context, c *Coordinator, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		if v, ok := e.value.(T); ok {
			c.mu.Unlock()
			cacheHits.WithLabelValues(key.Root()).Inc()
			return v, nil
		}
	}
	flightKey := fmt.Sprintf("%s@%d", key.id(), e.epoch)
	c.mu.Unlock()

	cacheMisses.WithLabelValues(key.Root()).Inc()
	res, err, _ := c.flight.Do(flightKey, func() (any, error) {
		c.mu.Lock()
		e.seq++
		issued := e.seq
		c.mu.Unlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		current, live := c.entries[key.id()]
		if live && current == e && e.seq == issued {
			e.value = v
			e.has = true
			e.stale = false
			e.fetchedAt = c.now()
		} else {
			cacheDiscarded.WithLabelValues(key.Root()).Inc()
			c.log.Debug("querycache: dropped superseded response", "key", key.String())
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: key %s holds %T", key, res)
	}
	return v, nil
}

// Peek returns the last stored value even if stale, so a view can render it
// while a refetch is in flight.
func Peek[T any](c *Coordinator, key Key) (v T, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key.id()]
	if !found || !e.has {
		return v, false, false
	}
	v, ok = e.value.(T)
	if !ok {
		return v, false, false
	}
	return v, !c.freshLocked(e), true
}

// Set stores a value directly, superseding any in-flight fetch for key.
func (c *Coordinator) Set(key Key, v any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.seq++
	e.value = v
	e.has = true
	e.stale = false
	e.fetchedAt = c.now()
	c.mu.Unlock()
}

// Invalidate marks every matching entry stale. Stale values stay readable
// through Peek until a fetch replaces them. Observers of the returned keys
// are notified after the entries are updated.
func (c *Coordinator) Invalidate(pred Predicate) []Key {
	c.mu.Lock()
	var keys []Key
	for _, e := range c.entries {
		if !pred(e.key) {
			continue
		}
		e.stale = true
		e.seq++
		c.clock++
		e.epoch = c.clock
		keys = append(keys, e.key)
		cacheInvalidations.WithLabelValues(e.key.Root()).Inc()
	}
	c.mu.Unlock()

	if len(keys) > 0 {
		c.log.Debug("querycache: invalidated", "count", len(keys))
	}
	c.notify(keys)
	return keys
}

func (c *Coordinator) InvalidateKeys(keys ...Key) []Key {
	return c.Invalidate(func(k Key) bool {
		for _, want := range keys {
			if k.Equal(want) {
				return true
			}
		}
		return false
	})
}

// Reset drops every entry. Used on login, signup and logout so no data of a
// previous viewer survives.
func (c *Coordinator) Reset() []Key {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
		cacheInvalidations.WithLabelValues(e.key.Root()).Inc()
	}
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.log.Debug("querycache: reset", "count", len(keys))
	c.notify(keys)
	return keys
}

// Apply invalidates what a mutation may have changed.
func (c *Coordinator) Apply(m Mutation) []Key {
	if m == AuthChanged {
		return c.Reset()
	}
	return c.Invalidate(m.Predicate())
}

// Subscribe registers fn for invalidations of keys matching pred. The
// returned func removes the subscription. fn runs on the invalidating
// goroutine and must not block.
func (c *Coordinator) Subscribe(pred Predicate, fn func(Key)) func() {
	c.mu.Lock()
	c.nextObs++
	id := c.nextObs
	c.observers[id] = observer{pred: pred, fn: fn}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) notify(keys []Key) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	obs := make([]observer, 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	c.mu.Unlock()

	for _, k := range keys {
		for _, o := range obs {
			if o.pred(k) {
				o.fn(k)
			}
		}
	}
}

// Keys lists the keys currently held, fresh or stale.
func (c *Coordinator) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		if e.has {
			out = append(out, e.key)
		}
	}
	return out
}

// Fresh reports whether key holds a value that would be served without a
// fetch.
func (c *Coordinator) Fresh(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	return ok && c.freshLocked(e)
}
