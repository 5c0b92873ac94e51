// Package scheduler drives a list of remote item references through the
// resolver and into the reconciliation store.
//
// References are validated up front, deduplicated and seeded as Unresolved
// records. Work then proceeds in fixed-size batches, each processed by a
// bounded worker pool, with a delay between batches. A throttling answer on
// any item pauses the whole run, since upstream limits are account-wide.
// Transient failures are retried up to Config.MaxRetries; permanent ones
// become placeholders straight away. A panic or unexpected error in one item
// is recorded as a Failed record and never stops the run.
//
// Cancelling the run context stops new items from starting; items already
// running finish and are stored. The store is checkpointed every
// Config.CheckpointEvery items and once more at the end.
package scheduler
