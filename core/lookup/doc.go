// Package lookup is the authenticated client for the upstream podcast
// directory API.
//
// It exposes two lookups, LookupFeed and LookupItem, each signed with fresh
// credentials from BuildAuthHeaders and bounded by a per-request timeout.
// The client never sleeps on throttling: a 429 is surfaced as a
// *ThrottledError carrying the server's Retry-After hint so that the batch
// scheduler, which owns backoff policy, can pause the whole run.
//
// Every other non-success response becomes a *StatusError wrapping
// ErrNotFound. IsTransient lets callers separate 5xx, timeouts and network
// failures (worth retrying) from genuine absence.
package lookup
