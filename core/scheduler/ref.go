package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"track-resolver/core/reconcile"
)

// ErrInvalidReference is returned when a reference has an empty half.
// It signals a caller bug and aborts the run before any work starts.
var ErrInvalidReference = errors.New("invalid remote item reference")

// Ref points at a track hosted in a feed this system does not own.
type Ref struct {
	FeedID string `json:"feedId"`
	ItemID string `json:"itemId"`
}

// Key returns the store key for r.
func (r Ref) Key() reconcile.Key {
	return reconcile.Key{FeedID: r.FeedID, ItemID: r.ItemID}
}

// normalize validates refs and drops repeats, keeping first-seen order.
func normalize(refs []Ref) ([]reconcile.Key, error) {
	seen := make(map[reconcile.Key]struct{}, len(refs))
	keys := make([]reconcile.Key, 0, len(refs))
	for i, r := range refs {
		k := reconcile.Key{FeedID: strings.TrimSpace(r.FeedID), ItemID: strings.TrimSpace(r.ItemID)}
		if !k.Valid() {
			return nil, fmt.Errorf("ref %d (%q, %q): %w", i, r.FeedID, r.ItemID, ErrInvalidReference)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}
