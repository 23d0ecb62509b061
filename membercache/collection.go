package membercache

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/cache"
	"github.com/goliatone/go-team-directory/member"
)

// Collection is the remote member collection: the contract implemented by
// client.Client and, with caching, by CachedCollection.
type Collection interface {
	List(ctx context.Context, q member.PageQuery) (member.PageResult, error)
	GetByID(ctx context.Context, id member.ID) (member.Member, error)
	Create(ctx context.Context, fields member.Fields) (member.Member, error)
	Update(ctx context.Context, id member.ID, patch member.Patch) (member.Member, error)
	Delete(ctx context.Context, id member.ID) error
}

// Interface assertion to ensure CachedCollection implements Collection
var _ Collection = (*CachedCollection)(nil)

const (
	methodList    = "List"
	methodGetByID = "GetByID"

	// DefaultRegistryLimit is the registry size that triggers pruning when
	// WithRegistryLimit is not used.
	DefaultRegistryLimit = 1024
)

// CachedCollection decorates a Collection with read-through caching of List
// and GetByID. Writes pass through and, on success, invalidate the list
// entries (and the touched member's entry) so the next read goes to the
// network.
type CachedCollection struct {
	base          Collection
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *xsync.MapOf[string, struct{}]
	namespace     string
	listGen       atomic.Uint64
	registryLimit int
	pruneAt       atomic.Int64
	pruning       atomic.Bool
	logger        zerolog.Logger
}

// Option configures a CachedCollection.
type Option func(*CachedCollection)

// WithNamespace prefixes every key with the snake_cased resource name, so
// several collections can share one cache service.
func WithNamespace(resource string) Option {
	return func(c *CachedCollection) {
		c.namespace = toSnake(resource)
	}
}

// WithLogger sets the logger used for invalidation traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *CachedCollection) {
		c.logger = logger
	}
}

// WithRegistryLimit sets how many tracked keys trigger a prune of keys the
// cache no longer holds. Matching it to the cache capacity keeps the
// registry roughly the size of the cache.
func WithRegistryLimit(n int) Option {
	return func(c *CachedCollection) {
		if n > 0 {
			c.registryLimit = n
		}
	}
}

// New creates a CachedCollection over base.
func New(base Collection, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedCollection {
	c := &CachedCollection{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		keyRegistry:   xsync.NewMapOf[string, struct{}](),
		registryLimit: DefaultRegistryLimit,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pruneAt.Store(int64(c.registryLimit))
	return c
}

// List returns the page for q, served from cache when an entry exists for
// the current list generation.
func (c *CachedCollection) List(ctx context.Context, q member.PageQuery) (member.PageResult, error) {
	q = q.Normalize()
	key := c.listKey(q)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (member.PageResult, error) {
		return c.base.List(ctx, q)
	})
}

// GetByID returns one member, served from cache when present.
func (c *CachedCollection) GetByID(ctx context.Context, id member.ID) (member.Member, error) {
	key := c.itemKey(id)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (member.Member, error) {
		return c.base.GetByID(ctx, id)
	})
}

// Get returns the cached page for q without touching the network.
func (c *CachedCollection) Get(ctx context.Context, q member.PageQuery) (member.PageResult, bool) {
	return cache.Peek[member.PageResult](ctx, c.cache, c.listKey(q.Normalize()))
}

// Put stores result as the page for q.
func (c *CachedCollection) Put(ctx context.Context, q member.PageQuery, result member.PageResult) error {
	key := c.listKey(q.Normalize())
	c.trackKey(key)
	return c.cache.Store(ctx, key, result)
}

// Create passes through and invalidates every cached page.
func (c *CachedCollection) Create(ctx context.Context, fields member.Fields) (member.Member, error) {
	created, err := c.base.Create(ctx, fields)
	if err == nil {
		c.InvalidateAll(ctx)
	}
	return created, err
}

// Update passes through and invalidates every cached page and the member.
func (c *CachedCollection) Update(ctx context.Context, id member.ID, patch member.Patch) (member.Member, error) {
	updated, err := c.base.Update(ctx, id, patch)
	if err == nil {
		c.InvalidateMember(ctx, id)
		c.InvalidateAll(ctx)
	}
	return updated, err
}

// Delete passes through and invalidates every cached page and the member.
func (c *CachedCollection) Delete(ctx context.Context, id member.ID) error {
	err := c.base.Delete(ctx, id)
	if err == nil {
		c.InvalidateMember(ctx, id)
		c.InvalidateAll(ctx)
	}
	return err
}

// InvalidateAll drops every cached page. The list generation is bumped
// first, so a fetch already in flight stores its result under a key no
// later read will use.
func (c *CachedCollection) InvalidateAll(ctx context.Context) {
	gen := c.listGen.Add(1)
	removed := c.invalidateByPrefix(ctx, c.method(methodList))
	c.logger.Debug().
		Uint64("generation", gen).
		Int("entries", removed).
		Msg("list cache invalidated")
}

// InvalidateMember drops the cached entry for one member.
func (c *CachedCollection) InvalidateMember(ctx context.Context, id member.ID) {
	key := c.itemKey(id)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
	c.keyRegistry.Delete(key)
}

// Tracked reports how many keys are registered for invalidation.
func (c *CachedCollection) Tracked() int {
	return c.keyRegistry.Size()
}

func (c *CachedCollection) method(name string) string {
	if c.namespace == "" {
		return name
	}
	return c.namespace + cache.KeySeparator + name
}

func (c *CachedCollection) listKey(q member.PageQuery) string {
	gen := "g" + strconv.FormatUint(c.listGen.Load(), 10)
	return c.keySerializer.SerializeKey(c.method(methodList), gen, q)
}

func (c *CachedCollection) itemKey(id member.ID) string {
	return c.keySerializer.SerializeKey(c.method(methodGetByID), id)
}

// trackKey registers a cache key in the key registry for later invalidation
func (c *CachedCollection) trackKey(key string) {
	if int64(c.keyRegistry.Size()) >= c.pruneAt.Load() {
		c.pruneRegistry()
	}
	c.keyRegistry.Store(key, struct{}{})
}

// pruneRegistry forgets keys the cache has evicted or expired. If the cache
// still holds most of them, the next prune waits until the registry doubles.
func (c *CachedCollection) pruneRegistry() {
	if !c.pruning.CompareAndSwap(false, true) {
		return
	}
	defer c.pruning.Store(false)

	ctx := context.Background()
	pruned := 0
	c.keyRegistry.Range(func(key string, _ struct{}) bool {
		if _, ok := c.cache.Peek(ctx, key); !ok {
			c.keyRegistry.Delete(key)
			pruned++
		}
		return true
	})

	size := c.keyRegistry.Size()
	c.pruneAt.Store(int64(max(c.registryLimit, 2*size)))
	c.logger.Debug().
		Int("pruned", pruned).
		Int("tracked", size).
		Msg("key registry pruned")
}

// invalidateByPrefix removes all tracked keys that start with prefix.
func (c *CachedCollection) invalidateByPrefix(ctx context.Context, prefix string) int {
	var keysToDelete []string
	c.keyRegistry.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, prefix) {
			keysToDelete = append(keysToDelete, key)
		}
		return true
	})

	for _, key := range keysToDelete {
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		}
		c.keyRegistry.Delete(key)
	}
	return len(keysToDelete)
}
