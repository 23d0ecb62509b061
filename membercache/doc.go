// Package membercache provides the list query cache: a caching decorator
// over the member collection client.
//
// # Overview
//
// CachedCollection wraps any Collection (normally *client.Client) and
// intercepts reads:
//
//   - List results are cached per PageQuery (search, page, page size)
//   - GetByID results are cached per member id
//
// Create, Update and Delete go straight to the wrapped collection. When they
// succeed every cached page is invalidated, and Update/Delete also drop the
// member's own entry, so the next read after a mutation is always a network
// fetch. A user who adds or deletes a member sees the new count right away.
//
// # Basic Usage
//
//	service, _ := cache.NewCacheService(cache.DefaultConfig())
//	cached := membercache.New(httpClient, service, cache.NewDefaultKeySerializer(),
//		membercache.WithNamespace("TeamMember"),
//	)
//
//	page, err := cached.List(ctx, member.PageQuery{Page: 1, PageSize: 6})
//	page, err = cached.List(ctx, member.PageQuery{Page: 1, PageSize: 6}) // cache hit
//
// # Direct Access
//
// Get and Put expose the cache entries for a query without fetching.
// InvalidateAll is the hook to call after a mutation made elsewhere.
//
// # Invalidation
//
// List keys carry a generation counter. InvalidateAll bumps the generation
// before deleting tracked keys, so a list request that was already in flight
// when a mutation landed cannot repopulate the cache with the old page.
package membercache
