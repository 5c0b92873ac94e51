package reconcile

// Merge folds incoming into existing for the same key.
//
// Rules:
//   - State only advances (Unresolved < Failed < Placeholder < Resolved).
//   - An empty incoming value never replaces a known one.
//   - A non-empty incoming value replaces a known one only when incoming is
//     at least as new (AttemptCount) and at least as advanced (State).
//   - Synthetic placeholder content never lands on a Resolved record, and is
//     discarded when a Resolved result arrives, whatever its attempt order.
//
// Merge is idempotent: Merge(Merge(a, b), b) == Merge(a, b).
func Merge(existing, incoming ResolvedTrack) ResolvedTrack {
	out := existing

	newer := incoming.AttemptCount >= existing.AttemptCount
	upgrade := incoming.State == StateResolved && existing.State != StateResolved
	overwrite := upgrade || (newer && incoming.State.rank() >= existing.State.rank())
	fill := !(incoming.State.synthetic() && existing.State == StateResolved)

	if upgrade && existing.State.synthetic() {
		out.Title = ""
		out.DurationSeconds = 0
	}

	if fill {
		mergeString(&out.Title, incoming.Title, overwrite)
		mergeString(&out.Artist, incoming.Artist, overwrite)
		mergeString(&out.Album, incoming.Album, overwrite)
		mergeString(&out.AudioLocation, incoming.AudioLocation, overwrite)
		mergeString(&out.ArtworkLocation, incoming.ArtworkLocation, overwrite)
		if incoming.DurationSeconds > 0 && (overwrite || out.DurationSeconds == 0) {
			out.DurationSeconds = incoming.DurationSeconds
		}
	}

	if incoming.State.rank() > out.State.rank() {
		out.State = incoming.State
	}

	switch {
	case overwrite:
		if incoming.Strategy != StrategyNone {
			out.Strategy = incoming.Strategy
		}
		if incoming.State == StateResolved {
			out.FailureReason = ""
			out.FailureClass = FailureNone
		} else if incoming.FailureReason != "" {
			out.FailureReason = incoming.FailureReason
			out.FailureClass = incoming.FailureClass
		}
	case out.State != StateResolved:
		if out.Strategy == StrategyNone {
			out.Strategy = incoming.Strategy
		}
		if out.FailureReason == "" {
			out.FailureReason = incoming.FailureReason
			out.FailureClass = incoming.FailureClass
		}
	}

	if incoming.AttemptCount > out.AttemptCount {
		out.AttemptCount = incoming.AttemptCount
	}
	if incoming.LastAttemptedAt.After(out.LastAttemptedAt) {
		out.LastAttemptedAt = incoming.LastAttemptedAt
	}
	if incoming.LastResolvedAt.After(out.LastResolvedAt) {
		out.LastResolvedAt = incoming.LastResolvedAt
	}
	return out
}

func mergeString(dst *string, incoming string, overwrite bool) {
	if incoming == "" {
		return
	}
	if overwrite || *dst == "" {
		*dst = incoming
	}
}
