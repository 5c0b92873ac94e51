package resolver

import (
	"context"
	"errors"
	"fmt"

	"track-resolver/core/feedfetch"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
)

// Fragment is the input of a fragment search.
type Fragment struct {
	Key reconcile.Key
	// Segment is the trailing path segment of the item id.
	Segment string
	// Feed is the directory's view of the feed, nil when the lookup failed.
	Feed *lookup.FeedInfo
}

// Candidate is a possible match found by a FragmentMatcher.
type Candidate struct {
	Title           string
	Artist          string
	Album           string
	AudioLocation   string
	DurationSeconds int
	ArtworkLocation string
	// Source names the matcher, for logs and failure reasons.
	Source string
}

func (c *Candidate) complete() bool {
	return c != nil && c.Title != "" && c.AudioLocation != ""
}

// FragmentMatcher searches for a track by a fragment of its identifier.
// It returns ErrNoMatch when nothing matches.
type FragmentMatcher interface {
	Match(ctx context.Context, f Fragment) (*Candidate, error)
}

// SegmentFinder is the fetcher operation FeedSegmentMatcher needs.
type SegmentFinder interface {
	FindBySegment(ctx context.Context, location, segment string) (*feedfetch.ItemFields, error)
}

// FeedSegmentMatcher searches the feed document's enclosures for the segment.
type FeedSegmentMatcher struct {
	Finder SegmentFinder
}

func (m FeedSegmentMatcher) Match(ctx context.Context, f Fragment) (*Candidate, error) {
	if f.Feed == nil || f.Feed.Location == "" {
		return nil, fmt.Errorf("feed segment: no feed location: %w", ErrNoMatch)
	}
	fields, err := m.Finder.FindBySegment(ctx, f.Feed.Location, f.Segment)
	if err != nil {
		if feedfetch.IsTransient(err) {
			return nil, err
		}
		return nil, fmt.Errorf("feed segment: %v: %w", err, ErrNoMatch)
	}
	return &Candidate{
		Title:           fields.Title,
		Artist:          firstNonEmpty(fields.Author, fields.FeedAuthor, f.Feed.Author),
		Album:           firstNonEmpty(fields.FeedTitle, f.Feed.Title),
		AudioLocation:   fields.AudioLocation,
		DurationSeconds: fields.DurationSeconds,
		ArtworkLocation: firstNonEmpty(fields.Image, fields.FeedImage, f.Feed.Artwork),
		Source:          "feed",
	}, nil
}

// TrackIndex is the store operation StoreSegmentMatcher needs.
type TrackIndex interface {
	FindByAudioSegment(segment string) (reconcile.ResolvedTrack, bool)
}

// StoreSegmentMatcher reuses an already resolved record whose audio
// location contains the segment.
type StoreSegmentMatcher struct {
	Index TrackIndex
}

func (m StoreSegmentMatcher) Match(_ context.Context, f Fragment) (*Candidate, error) {
	t, ok := m.Index.FindByAudioSegment(f.Segment)
	if !ok || t.Key() == f.Key {
		return nil, fmt.Errorf("store segment %q: %w", f.Segment, ErrNoMatch)
	}
	return &Candidate{
		Title:           t.Title,
		Artist:          t.Artist,
		Album:           t.Album,
		AudioLocation:   t.AudioLocation,
		DurationSeconds: t.DurationSeconds,
		ArtworkLocation: t.ArtworkLocation,
		Source:          "store:" + t.Key().String(),
	}, nil
}

// ChainMatcher tries matchers in order and returns the first complete
// candidate. When none matches, the first error other than ErrNoMatch is
// returned so transient failures stay retryable.
type ChainMatcher []FragmentMatcher

func (c ChainMatcher) Match(ctx context.Context, f Fragment) (*Candidate, error) {
	var failure error
	for _, m := range c {
		cand, err := m.Match(ctx, f)
		if err == nil && cand.complete() {
			return cand, nil
		}
		if err != nil && !errors.Is(err, ErrNoMatch) && failure == nil {
			failure = err
		}
	}
	if failure != nil {
		return nil, failure
	}
	return nil, fmt.Errorf("segment %q: %w", f.Segment, ErrNoMatch)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
