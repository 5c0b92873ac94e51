// Package resolver turns one (feed, item) reference into a track record.
//
// Strategies run cheapest and most authoritative first, and the chain stops
// at the first complete result:
//
//  1. direct: the directory's item lookup
//  2. feed-fetch: the directory's feed lookup, then the feed document itself
//  3. fragment: when the item id is a URL, search for its trailing path
//     segment through a FragmentMatcher (tagged low confidence)
//  4. placeholder: a labeled stand-in with a default duration
//
// Resolve never decides about retries. It returns the record it would store
// together with an error wrapping ErrTransient when another attempt could
// change the outcome; the scheduler owns the retry and backoff policy.
package resolver
