// Package cache provides the caching contract and key serialization used by
// the member collection cache.
//
// # Overview
//
// This package exports two interfaces and their default implementations:
//
//   - CacheService: read-through GetOrFetch plus Peek, Store and prefix deletes
//   - KeySerializer: builds stable cache keys from method names and arguments
//
// # Basic Usage
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("List", query) // "List::page=1;size=6;q=dev"
//
//	page, err := cache.GetOrFetch(ctx, service, key, func(ctx context.Context) (member.PageResult, error) {
//		return collection.List(ctx, query)
//	})
//
// # Key Serialization
//
// Arguments implementing KeyPart render themselves; strings and Stringers are
// used verbatim; numbers and booleans via %v; slices element by element;
// anything else through JSON. NewHashedKeySerializer shortens oversized
// segments with xxhash while leaving the method prefix readable, so
// DeleteByPrefix("List") still reaches every list entry.
package cache
