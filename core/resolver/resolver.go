package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"track-resolver/core/feedfetch"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
	"track-resolver/core/utils"

	"go.uber.org/zap"
)

// maxLabelRunes bounds the item-derived part of a placeholder title.
const maxLabelRunes = 48

// APIClient is the directory lookup surface used by the first two strategies.
type APIClient interface {
	LookupFeed(ctx context.Context, feedID string) (*lookup.FeedInfo, error)
	LookupItem(ctx context.Context, feedID, itemID string) (*lookup.ItemInfo, error)
}

// FeedFetcher reads one item out of a feed document.
type FeedFetcher interface {
	FetchItem(ctx context.Context, location, itemID string) (*feedfetch.ItemFields, error)
}

// Resolver runs the strategy chain for one reference at a time. It is safe
// for concurrent use as long as its collaborators are.
type Resolver struct {
	api     APIClient
	fetcher FeedFetcher
	matcher FragmentMatcher
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatcher replaces the fragment matcher.
func WithMatcher(m FragmentMatcher) Option {
	return func(r *Resolver) {
		r.matcher = m
	}
}

// WithClock sets the time source used for attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a Resolver. When fetcher can search by segment, it also backs
// the default fragment matcher.
func New(api APIClient, fetcher FeedFetcher, cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		api:     api,
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	if finder, ok := fetcher.(SegmentFinder); ok {
		r.matcher = FeedSegmentMatcher{Finder: finder}
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.PlaceholderDurationSeconds <= 0 {
		r.cfg.PlaceholderDurationSeconds = 180
	}
	if r.cfg.PlaceholderPrefix == "" {
		r.cfg.PlaceholderPrefix = "[unresolved]"
	}
	return r
}

// attempt carries what one pass through the chain has learned.
type attempt struct {
	key       reconcile.Key
	count     int
	partial   *lookup.ItemInfo
	feed      *lookup.FeedInfo
	lastErr   error
	transient error
	log       *zap.Logger
}

func (a *attempt) fail(strategy reconcile.Strategy, err error) {
	err = fmt.Errorf("%s: %w", strategy, err)
	a.lastErr = err
	if Classify(err) == reconcile.FailureTransient && a.transient == nil {
		a.transient = err
	}
	a.log.Debug("Strategy failed", zap.String("strategy", string(strategy)), zap.Error(err))
}

// Resolve runs the strategy chain for key. prior is the attempt count
// already recorded for the key; every strategy tried adds one.
//
// The returned record is always storable (Resolved or Placeholder) unless
// the key is invalid. A non-nil error wraps ErrTransient and means a retry
// could do better; throttling aborts the chain at once and also matches
// lookup.ErrThrottled.
func (r *Resolver) Resolve(ctx context.Context, key reconcile.Key, prior int) (reconcile.ResolvedTrack, error) {
	if !key.Valid() {
		return reconcile.ResolvedTrack{}, fmt.Errorf("resolve %q: %w", key.String(), reconcile.ErrInvalidKey)
	}
	a := &attempt{
		key:   key,
		count: prior,
		log:   r.logger.With(zap.String("feed_id", key.FeedID), zap.String("item_id", key.ItemID)),
	}

	// 1. direct
	a.count++
	item, err := r.api.LookupItem(ctx, key.FeedID, key.ItemID)
	switch {
	case IsThrottled(err):
		return r.abort(a, err)
	case err != nil:
		a.fail(reconcile.StrategyDirect, err)
	case item.Complete():
		return r.resolved(a, reconcile.StrategyDirect, fromItem(item)), nil
	default:
		a.partial = item
		a.fail(reconcile.StrategyDirect, fmt.Errorf("item is incomplete: %w", lookup.ErrNotFound))
	}

	// 2. feed lookup, then the feed document
	a.count++
	feed, err := r.api.LookupFeed(ctx, key.FeedID)
	switch {
	case IsThrottled(err):
		return r.abort(a, err)
	case err != nil:
		a.fail(reconcile.StrategyFeedFetch, err)
	case feed == nil:
		a.fail(reconcile.StrategyFeedFetch, fmt.Errorf("no feed: %w", lookup.ErrNotFound))
	default:
		a.feed = feed
		fields, err := r.fetcher.FetchItem(ctx, feed.Location, key.ItemID)
		if err != nil {
			a.fail(reconcile.StrategyFeedFetch, err)
			break
		}
		cand := fromFields(fields, a.partial, feed)
		if cand.complete() {
			return r.resolved(a, reconcile.StrategyFeedFetch, cand), nil
		}
		a.fail(reconcile.StrategyFeedFetch, fmt.Errorf("item in %s is incomplete: %w", feed.Location, feedfetch.ErrNotFound))
	}

	// 3. fragment
	if r.cfg.FragmentSearch && r.matcher != nil && utils.LooksLikeURL(key.ItemID) {
		if segment := utils.TrailingSegment(key.ItemID); segment != "" {
			a.count++
			cand, err := r.matcher.Match(ctx, Fragment{Key: key, Segment: segment, Feed: a.feed})
			switch {
			case IsThrottled(err):
				return r.abort(a, err)
			case err != nil:
				a.fail(reconcile.StrategyFragment, err)
			case !cand.complete():
				a.fail(reconcile.StrategyFragment, fmt.Errorf("incomplete candidate: %w", ErrNoMatch))
			default:
				a.log.Info("Accepted low-confidence fragment match",
					zap.String("segment", segment), zap.String("source", cand.Source))
				return r.resolved(a, reconcile.StrategyFragment, fillFromFeed(*cand, a.feed)), nil
			}
		}
	}

	return r.placeholder(a)
}

func (r *Resolver) resolved(a *attempt, strategy reconcile.Strategy, c Candidate) reconcile.ResolvedTrack {
	now := r.now()
	a.log.Debug("Resolved", zap.String("strategy", string(strategy)), zap.Int("attempts", a.count))
	return reconcile.ResolvedTrack{
		FeedID:          a.key.FeedID,
		ItemID:          a.key.ItemID,
		Title:           c.Title,
		Artist:          c.Artist,
		Album:           c.Album,
		AudioLocation:   c.AudioLocation,
		DurationSeconds: c.DurationSeconds,
		ArtworkLocation: c.ArtworkLocation,
		State:           reconcile.StateResolved,
		Strategy:        strategy,
		AttemptCount:    a.count,
		LastAttemptedAt: now,
		LastResolvedAt:  now,
	}
}

// placeholder synthesizes the stand-in record for a failed chain.
func (r *Resolver) placeholder(a *attempt) (reconcile.ResolvedTrack, error) {
	if a.lastErr == nil {
		a.lastErr = errors.New("no strategy applied")
	}
	t := reconcile.ResolvedTrack{
		FeedID:          a.key.FeedID,
		ItemID:          a.key.ItemID,
		Title:           r.PlaceholderTitle(a.key),
		DurationSeconds: r.cfg.PlaceholderDurationSeconds,
		State:           reconcile.StatePlaceholder,
		Strategy:        reconcile.StrategyPlaceholder,
		FailureReason:   a.lastErr.Error(),
		FailureClass:    Classify(a.lastErr),
		AttemptCount:    a.count,
		LastAttemptedAt: r.now(),
	}
	if a.feed != nil {
		t.Artist = a.feed.Author
		t.Album = a.feed.Title
		t.ArtworkLocation = a.feed.Artwork
	}

	if a.transient != nil {
		t.FailureReason = a.transient.Error()
		t.FailureClass = reconcile.FailureTransient
		return t, fmt.Errorf("resolve %s: %w: %w", a.key, ErrTransient, a.transient)
	}
	return t, nil
}

// abort stops the chain on throttling.
func (r *Resolver) abort(a *attempt, err error) (reconcile.ResolvedTrack, error) {
	a.lastErr = err
	a.transient = err
	a.log.Debug("Throttled", zap.Error(err))
	return r.placeholder(a)
}

// PlaceholderTitle returns the stand-in title for key. It depends only on
// the key, so repeated runs produce the same record.
func (r *Resolver) PlaceholderTitle(key reconcile.Key) string {
	label := key.ItemID
	if utils.LooksLikeURL(label) {
		if seg := utils.TrailingSegment(label); seg != "" {
			label = seg
		}
	}
	if utf8.RuneCountInString(label) > maxLabelRunes {
		label = string([]rune(label)[:maxLabelRunes])
	}
	return r.cfg.PlaceholderPrefix + " " + label
}

func fromItem(item *lookup.ItemInfo) Candidate {
	return Candidate{
		Title:           item.Title,
		Artist:          item.Author,
		AudioLocation:   item.AudioLocation,
		DurationSeconds: item.DurationSeconds,
		ArtworkLocation: item.Image,
		Source:          "directory",
	}
}

// fromFields combines the document's item, whatever the direct lookup
// returned, and the directory's feed record. Item-level values win.
func fromFields(f *feedfetch.ItemFields, partial *lookup.ItemInfo, feed *lookup.FeedInfo) Candidate {
	var p lookup.ItemInfo
	if partial != nil {
		p = *partial
	}
	c := Candidate{
		Title:           firstNonEmpty(f.Title, p.Title),
		Artist:          firstNonEmpty(f.Author, p.Author, f.FeedAuthor),
		Album:           f.FeedTitle,
		AudioLocation:   firstNonEmpty(f.AudioLocation, p.AudioLocation),
		DurationSeconds: f.DurationSeconds,
		ArtworkLocation: firstNonEmpty(f.Image, p.Image, f.FeedImage),
		Source:          "feed:" + string(f.Match),
	}
	if c.DurationSeconds == 0 {
		c.DurationSeconds = p.DurationSeconds
	}
	return fillFromFeed(c, feed)
}

func fillFromFeed(c Candidate, feed *lookup.FeedInfo) Candidate {
	if feed == nil {
		return c
	}
	c.Artist = firstNonEmpty(c.Artist, feed.Author)
	c.Album = firstNonEmpty(c.Album, feed.Title)
	c.ArtworkLocation = firstNonEmpty(c.ArtworkLocation, feed.Artwork)
	return c
}
