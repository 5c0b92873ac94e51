// Package cache provides the short-TTL memoization used during resolution runs.
//
// A Cache is an explicit object handed to the lookup client and the feed
// fetcher; there is no process-wide instance. Entries follow
// last-write-wins semantics and expire after the configured TTL, measured
// against an injectable clock so tests can control expiry deterministically.
//
// GetOrLoad collapses concurrent loads of the same key into one call via
// singleflight, which keeps a batch of items from the same feed from
// fetching that feed once per worker.
//
// # Usage
//
//	c := cache.New[string, *FeedInfo](5*time.Minute)
//	info, err := c.GetOrLoad(ctx, feedID, func(ctx context.Context) (*FeedInfo, error) {
//	    return api.fetchFeed(ctx, feedID)
//	})
package cache
