package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("track not found")

	// ErrInvalidKey is returned for records with an empty feed or item id.
	ErrInvalidKey = errors.New("invalid track key")

	// ErrInvalidTrack is returned for records violating state invariants.
	ErrInvalidTrack = errors.New("invalid track")
)

// State is the resolution lifecycle of a record.
type State string

const (
	// StateUnresolved is a record that has been seen but not yet attempted.
	StateUnresolved State = "unresolved"
	// StateFailed is a record whose resolution hit an unexpected internal error.
	StateFailed State = "failed"
	// StatePlaceholder is a record carrying synthetic stand-in values.
	StatePlaceholder State = "placeholder"
	// StateResolved is a playable record.
	StateResolved State = "resolved"
)

// States lists every state in advancement order.
var States = []State{StateUnresolved, StateFailed, StatePlaceholder, StateResolved}

// rank orders states for the advance-only rule.
func (s State) rank() int {
	switch s {
	case StateFailed:
		return 1
	case StatePlaceholder:
		return 2
	case StateResolved:
		return 3
	default:
		return 0
	}
}

// Settled reports whether a run has already produced a terminal outcome.
func (s State) Settled() bool {
	return s.rank() > 0
}

// synthetic reports whether records in this state carry stand-in content.
func (s State) synthetic() bool {
	return s == StatePlaceholder || s == StateFailed
}

// ParseState parses a state name case-insensitively.
func ParseState(v string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range States {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown resolution state %q", v)
}

// Strategy names what produced a record's current data.
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyDirect      Strategy = "direct"
	StrategyFeedFetch   Strategy = "feed-fetch"
	StrategyFragment    Strategy = "fragment"
	StrategyPlaceholder Strategy = "placeholder"
)

// LowConfidence reports whether the strategy can produce false positives.
func (s Strategy) LowConfidence() bool {
	return s == StrategyFragment
}

// FailureClass categorizes why a record is not resolved.
type FailureClass string

const (
	FailureNone      FailureClass = ""
	FailureTransient FailureClass = "transient"
	FailureNotFound  FailureClass = "not-found"
	FailureMalformed FailureClass = "malformed"
	FailureInternal  FailureClass = "internal"
)

// Key is the composite identity of a record.
type Key struct {
	FeedID string
	ItemID string
}

func (k Key) String() string {
	return k.FeedID + "/" + k.ItemID
}

// Valid reports whether both halves are non-empty.
func (k Key) Valid() bool {
	return strings.TrimSpace(k.FeedID) != "" && strings.TrimSpace(k.ItemID) != ""
}

// ResolvedTrack is the canonical record for one remote item.
type ResolvedTrack struct {
	FeedID          string       `json:"feed_id"`
	ItemID          string       `json:"item_id"`
	Title           string       `json:"title"`
	Artist          string       `json:"artist"`
	Album           string       `json:"album"`
	AudioLocation   string       `json:"audio_location"`
	DurationSeconds int          `json:"duration_seconds"`
	ArtworkLocation string       `json:"artwork_location,omitempty"`
	State           State        `json:"resolution_state"`
	Strategy        Strategy     `json:"resolution_strategy,omitempty"`
	FailureReason   string       `json:"failure_reason,omitempty"`
	FailureClass    FailureClass `json:"failure_class,omitempty"`
	LastAttemptedAt time.Time    `json:"last_attempted_at,omitempty"`
	LastResolvedAt  time.Time    `json:"last_resolved_at,omitempty"`
	AttemptCount    int          `json:"attempt_count"`
}

// Key returns the record's composite key.
func (t ResolvedTrack) Key() Key {
	return Key{FeedID: t.FeedID, ItemID: t.ItemID}
}

// NewUnresolved returns the record created when a reference is first seen.
func NewUnresolved(feedID, itemID string) ResolvedTrack {
	return ResolvedTrack{FeedID: feedID, ItemID: itemID, State: StateUnresolved}
}

// Validate checks key and state invariants.
func (t ResolvedTrack) Validate() error {
	if !t.Key().Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKey, t.Key().String())
	}
	if t.State.rank() == 0 && t.State != StateUnresolved {
		return fmt.Errorf("%w: %s has unknown state %q", ErrInvalidTrack, t.Key(), t.State)
	}
	if t.State == StateResolved && (strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.AudioLocation) == "") {
		return fmt.Errorf("%w: resolved %s needs title and audio location", ErrInvalidTrack, t.Key())
	}
	if t.DurationSeconds < 0 || t.AttemptCount < 0 {
		return fmt.Errorf("%w: %s has negative counters", ErrInvalidTrack, t.Key())
	}
	return nil
}
