// Package reconcile holds the canonical store of resolved track records.
//
// A record is keyed by the composite (feed id, item id) and moves through
// the states Unresolved, Failed, Placeholder and Resolved. The Store is the
// only writer: every producer (resolution runs, re-resolution passes,
// one-off fixups) goes through Upsert, which applies Merge.
//
// # Merge rule
//
// Merge is monotonic. State only advances, an empty incoming value never
// erases a known one, and a non-empty incoming value only replaces a known
// one when it is at least as new by AttemptCount and at least as advanced by
// state. Placeholder content is synthetic: it never lands on a Resolved
// record and is discarded when a Resolved result arrives. Because the rule
// is idempotent and ordered by logical attempt rather than arrival, two
// workers racing on one key converge on the same record.
//
// # Persistence
//
// The store keeps everything in memory and persists whole snapshots through
// a Snapshotter:
//
//   - FileSnapshot: a JSON array in a local file, replaced atomically.
//   - ObjectSnapshot: the same JSON array as an object in S3/MinIO.
//   - DBSnapshot: rows in the resolved_tracks table via GORM upserts.
//
// # Usage
//
//	store := reconcile.NewStore(reconcile.NewFileSnapshot("data/tracks.json"), logger)
//	if _, err := store.Load(ctx); err != nil {
//	    return err
//	}
//	merged, err := store.Upsert(track)
//	err = store.Checkpoint(ctx)
package reconcile
