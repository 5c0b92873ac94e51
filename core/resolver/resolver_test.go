package resolver

import (
	"context"
	"strings"
	"testing"
	"time"

	"track-resolver/core/feedfetch"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func notFound(reason string) error {
	return &lookup.StatusError{Reason: reason}
}

func newResolver(api *mockAPI, fetcher *mockFetcher, opts ...Option) *Resolver {
	cfg := Config{PlaceholderDurationSeconds: 180, FragmentSearch: true, PlaceholderPrefix: "[unresolved]"}
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(api, fetcher, cfg, opts...)
}

func TestResolve_DirectShortCircuits(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F1", "I1").Return(&lookup.ItemInfo{
		FeedID: "F1", ItemID: "I1", Title: "Song A", AudioLocation: "https://x/a.mp3", DurationSeconds: 200,
	}, nil)

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1", ItemID: "I1"}, 0)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateResolved, got.State)
	assert.Equal(t, reconcile.StrategyDirect, got.Strategy)
	assert.Equal(t, 200, got.DurationSeconds)
	assert.Equal(t, "https://x/a.mp3", got.AudioLocation)
	assert.Equal(t, 1, got.AttemptCount)
	assert.Equal(t, now, got.LastResolvedAt)

	api.AssertNumberOfCalls(t, "LookupItem", 1)
	api.AssertNotCalled(t, "LookupFeed", mock.Anything, mock.Anything)
	fetcher.AssertNotCalled(t, "FetchItem", mock.Anything, mock.Anything, mock.Anything)
	fetcher.AssertNotCalled(t, "FindBySegment", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_FeedFetch(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F2", "I2").Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F2").Return(&lookup.FeedInfo{
		FeedID: "F2", Title: "Album Two", Location: "https://feed2.xml", Author: "Feed Band", Artwork: "https://x/feed.jpg",
	}, nil)
	fetcher.On("FetchItem", mock.Anything, "https://feed2.xml", "I2").Return(&feedfetch.ItemFields{
		GUID: "urn:I2:v1", Title: "Song B", AudioLocation: "https://x/b.mp3", DurationSeconds: 321,
		Match: feedfetch.MatchSubstring,
	}, nil)

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F2", ItemID: "I2"}, 3)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateResolved, got.State)
	assert.Equal(t, reconcile.StrategyFeedFetch, got.Strategy)
	assert.Equal(t, "Song B", got.Title)
	assert.Equal(t, "Feed Band", got.Artist)
	assert.Equal(t, "Album Two", got.Album)
	assert.Equal(t, "https://x/feed.jpg", got.ArtworkLocation)
	assert.Equal(t, 5, got.AttemptCount)
	assert.Empty(t, got.FailureReason)
}

func TestResolve_FeedFetchFillsFromPartialItem(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F1", "I1").Return(&lookup.ItemInfo{
		Title: "Song A", DurationSeconds: 240, Author: "Item Band",
	}, nil)
	api.On("LookupFeed", mock.Anything, "F1").Return(&lookup.FeedInfo{Location: "https://feed1.xml", Author: "Feed Band"}, nil)
	fetcher.On("FetchItem", mock.Anything, "https://feed1.xml", "I1").Return(&feedfetch.ItemFields{
		AudioLocation: "https://x/a.mp3", FeedTitle: "Doc Title", Match: feedfetch.MatchExact,
	}, nil)

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1", ItemID: "I1"}, 0)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateResolved, got.State)
	assert.Equal(t, "Song A", got.Title)
	assert.Equal(t, 240, got.DurationSeconds)
	assert.Equal(t, "Item Band", got.Artist)
	assert.Equal(t, "Doc Title", got.Album)
}

func TestResolve_AllStrategiesFail(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F3", "I3").Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F3").Return(nil, notFound("no feed"))

	r := newResolver(api, fetcher)
	got, err := r.Resolve(context.Background(), reconcile.Key{FeedID: "F3", ItemID: "I3"}, 0)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StatePlaceholder, got.State)
	assert.Equal(t, reconcile.StrategyPlaceholder, got.Strategy)
	assert.Equal(t, "[unresolved] I3", got.Title)
	assert.Empty(t, got.AudioLocation)
	assert.Equal(t, 180, got.DurationSeconds)
	assert.Equal(t, reconcile.FailureNotFound, got.FailureClass)
	assert.Contains(t, got.FailureReason, "no feed")
	assert.Equal(t, 2, got.AttemptCount)
	assert.True(t, got.LastResolvedAt.IsZero())
	require.NoError(t, got.Validate())

	again, err := r.Resolve(context.Background(), reconcile.Key{FeedID: "F3", ItemID: "I3"}, 0)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	fetcher.AssertNotCalled(t, "FindBySegment", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_ThrottleAbortsChain(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F1", "I1").Return(nil, &lookup.ThrottledError{RetryAfter: 2 * time.Second})

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1", ItemID: "I1"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, lookup.ErrThrottled)
	assert.True(t, IsThrottled(err))

	te, ok := lookup.AsThrottled(err)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, te.RetryAfter)

	assert.Equal(t, reconcile.StatePlaceholder, got.State)
	assert.Equal(t, reconcile.FailureTransient, got.FailureClass)
	api.AssertNotCalled(t, "LookupFeed", mock.Anything, mock.Anything)
}

func TestResolve_TransientFailureIsRetryable(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F1", "I1").Return(nil, &lookup.StatusError{StatusCode: 503, Reason: "busy"})
	api.On("LookupFeed", mock.Anything, "F1").Return(nil, notFound("no feed"))

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1", ItemID: "I1"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.False(t, IsThrottled(err))
	assert.Equal(t, reconcile.FailureTransient, got.FailureClass)
	assert.Contains(t, got.FailureReason, "503")
}

func TestResolve_MalformedDocumentIsPermanent(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F1", "I1").Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F1").Return(&lookup.FeedInfo{Location: "https://feed1.xml", Title: "Album"}, nil)
	fetcher.On("FetchItem", mock.Anything, "https://feed1.xml", "I1").Return(nil, feedfetch.ErrMalformed)

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1", ItemID: "I1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePlaceholder, got.State)
	assert.Equal(t, reconcile.FailureMalformed, got.FailureClass)
	assert.Equal(t, "Album", got.Album)
}

func TestResolve_FragmentFromFeedDocument(t *testing.T) {
	itemID := "https://cdn.example.com/audio/track-07.mp3?src=rss"
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F4", itemID).Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F4").Return(&lookup.FeedInfo{Location: "https://feed4.xml", Title: "Four"}, nil)
	fetcher.On("FetchItem", mock.Anything, "https://feed4.xml", itemID).Return(nil, feedfetch.ErrNotFound)
	fetcher.On("FindBySegment", mock.Anything, "https://feed4.xml", "track-07.mp3").Return(&feedfetch.ItemFields{
		Title: "Track 7", AudioLocation: "https://mirror.example.com/track-07.mp3", Match: feedfetch.MatchSegment,
	}, nil)

	got, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F4", ItemID: itemID}, 0)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateResolved, got.State)
	assert.Equal(t, reconcile.StrategyFragment, got.Strategy)
	assert.True(t, got.Strategy.LowConfidence())
	assert.Equal(t, "Four", got.Album)
	assert.Equal(t, 3, got.AttemptCount)
}

func TestResolve_FragmentFromStore(t *testing.T) {
	store := reconcile.NewStore(nil, nil)
	_, err := store.Upsert(reconcile.ResolvedTrack{
		FeedID: "F9", ItemID: "I9", Title: "Known", AudioLocation: "https://cdn.example.com/a/known.mp3",
		State: reconcile.StateResolved, Strategy: reconcile.StrategyDirect, AttemptCount: 1,
	})
	require.NoError(t, err)

	itemID := "https://other.example.com/known.mp3"
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F5", itemID).Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F5").Return(nil, notFound("no feed"))

	matcher := ChainMatcher{
		FeedSegmentMatcher{Finder: fetcher},
		StoreSegmentMatcher{Index: store},
	}
	got, err := newResolver(api, fetcher, WithMatcher(matcher)).Resolve(context.Background(), reconcile.Key{FeedID: "F5", ItemID: itemID}, 0)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateResolved, got.State)
	assert.Equal(t, reconcile.StrategyFragment, got.Strategy)
	assert.Equal(t, "Known", got.Title)
	assert.Equal(t, "F5", got.FeedID)
	fetcher.AssertNotCalled(t, "FindBySegment", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_FragmentDisabled(t *testing.T) {
	itemID := "https://cdn.example.com/audio/track-07.mp3"
	api, fetcher := new(mockAPI), new(mockFetcher)
	api.On("LookupItem", mock.Anything, "F4", itemID).Return(nil, notFound("no episode"))
	api.On("LookupFeed", mock.Anything, "F4").Return(nil, notFound("no feed"))

	called := false
	r := New(api, fetcher, Config{FragmentSearch: false}, WithMatcher(matcherFunc(func(context.Context, Fragment) (*Candidate, error) {
		called = true
		return nil, ErrNoMatch
	})))

	got, err := r.Resolve(context.Background(), reconcile.Key{FeedID: "F4", ItemID: itemID}, 0)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "[unresolved] track-07.mp3", got.Title)
	assert.Equal(t, 180, got.DurationSeconds)
}

func TestResolve_InvalidKey(t *testing.T) {
	api, fetcher := new(mockAPI), new(mockFetcher)
	_, err := newResolver(api, fetcher).Resolve(context.Background(), reconcile.Key{FeedID: "F1"}, 0)
	assert.ErrorIs(t, err, reconcile.ErrInvalidKey)
	api.AssertNotCalled(t, "LookupItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceholderTitle(t *testing.T) {
	r := New(nil, nil, Config{PlaceholderPrefix: "[missing]"})

	assert.Equal(t, "[missing] I3", r.PlaceholderTitle(reconcile.Key{FeedID: "F", ItemID: "I3"}))
	assert.Equal(t, "[missing] ep.mp3", r.PlaceholderTitle(reconcile.Key{FeedID: "F", ItemID: "https://x.test/a/ep.mp3"}))

	long := strings.Repeat("é", 60)
	title := r.PlaceholderTitle(reconcile.Key{FeedID: "F", ItemID: long})
	assert.Equal(t, "[missing] "+strings.Repeat("é", maxLabelRunes), title)
}
