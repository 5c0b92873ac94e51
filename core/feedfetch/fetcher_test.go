package feedfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"track-resolver/core/cache"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title>Feed Two</title>
  <itunes:author>Artist Two</itunes:author>
  <itunes:image href="https://img.example.com/feed.jpg"/>
  <item>
    <title>First Song</title>
    <guid isPermaLink="false">guid-first</guid>
    <enclosure url="https://cdn.example.com/audio/first.mp3" type="audio/mpeg" length="1"/>
    <itunes:duration>03:20</itunes:duration>
    <itunes:image href="https://img.example.com/first.jpg"/>
  </item>
  <item>
    <title>Second Song</title>
    <guid isPermaLink="false">guid-second-long</guid>
    <enclosure url="https://track.example.net/redirect/cdn.example.com/audio/I2-second.mp3" type="audio/mpeg" length="1"/>
    <itunes:duration>125</itunes:duration>
    <itunes:author>Guest Artist</itunes:author>
  </item>
  <item>
    <title>No Audio</title>
    <guid>guid-noaudio</guid>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T, status int, body string, hits *int32) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/feed.xml"
}

func TestFetchItem(t *testing.T) {
	loc := serveFeed(t, 200, sampleFeed, nil)
	f := NewFetcher(Config{Timeout: 2 * time.Second, UserAgent: "test"})

	t.Run("exact guid", func(t *testing.T) {
		got, err := f.FetchItem(context.Background(), loc, "guid-first")
		require.NoError(t, err)
		assert.Equal(t, MatchExact, got.Match)
		assert.Equal(t, "First Song", got.Title)
		assert.Equal(t, "https://cdn.example.com/audio/first.mp3", got.AudioLocation)
		assert.Equal(t, 200, got.DurationSeconds)
		assert.Equal(t, "https://img.example.com/first.jpg", got.Image)
		assert.Equal(t, "Feed Two", got.FeedTitle)
		assert.Equal(t, "Artist Two", got.FeedAuthor)
		assert.Equal(t, "https://img.example.com/feed.jpg", got.FeedImage)
		assert.True(t, got.Complete())
	})

	t.Run("exact enclosure url", func(t *testing.T) {
		got, err := f.FetchItem(context.Background(), loc, "https://cdn.example.com/audio/first.mp3")
		require.NoError(t, err)
		assert.Equal(t, MatchExact, got.Match)
		assert.Equal(t, "First Song", got.Title)
	})

	t.Run("identifier inside enclosure", func(t *testing.T) {
		got, err := f.FetchItem(context.Background(), loc, "cdn.example.com/audio/I2-second.mp3")
		require.NoError(t, err)
		assert.Equal(t, MatchSubstring, got.Match)
		assert.Equal(t, "Second Song", got.Title)
		assert.Equal(t, 125, got.DurationSeconds)
		assert.Equal(t, "Guest Artist", got.Author)
	})

	t.Run("missing fields stay empty", func(t *testing.T) {
		got, err := f.FetchItem(context.Background(), loc, "guid-noaudio")
		require.NoError(t, err)
		assert.Equal(t, "", got.AudioLocation)
		assert.Equal(t, 0, got.DurationSeconds)
		assert.False(t, got.Complete())
	})

	t.Run("no match", func(t *testing.T) {
		_, err := f.FetchItem(context.Background(), loc, "does-not-exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("short identifier does not match inside a word", func(t *testing.T) {
		_, err := f.FetchItem(context.Background(), loc, "fir")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("short identifier matches a delimited token", func(t *testing.T) {
		got, err := f.FetchItem(context.Background(), loc, "I2")
		require.NoError(t, err)
		assert.Equal(t, MatchSubstring, got.Match)
		assert.Equal(t, "Second Song", got.Title)
	})
}

const urnFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Feed Two</title>
  <item>
    <title>Track I12</title>
    <guid isPermaLink="false">urn:I12:v1</guid>
    <enclosure url="https://cdn.example.com/audio/12.mp3" type="audio/mpeg" length="1"/>
  </item>
  <item>
    <title>Track I2</title>
    <guid isPermaLink="false">urn:I2:v1</guid>
    <enclosure url="https://cdn.example.com/audio/2.mp3" type="audio/mpeg" length="1"/>
  </item>
</channel>
</rss>`

func TestFetchItem_ShortIdentifierInGUID(t *testing.T) {
	loc := serveFeed(t, 200, urnFeed, nil)
	f := NewFetcher(Config{Timeout: 2 * time.Second})

	got, err := f.FetchItem(context.Background(), loc, "I2")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, got.Match)
	assert.Equal(t, "urn:I2:v1", got.GUID)
	assert.Equal(t, "https://cdn.example.com/audio/2.mp3", got.AudioLocation)

	_, err = f.FetchItem(context.Background(), loc, "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContainsToken(t *testing.T) {
	tests := []struct {
		s, tok string
		want   bool
	}{
		{"urn:I2:v1", "I2", true},
		{"I2", "I2", true},
		{"urn:I12:v1", "I2", false},
		{"urn:I2x", "I2", false},
		{"a/I2/I2b", "I2", true},
		{"abc", "", false},
		{"über-I2", "I2", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsToken(tt.s, tt.tok), "%q in %q", tt.tok, tt.s)
	}
}

func TestFetchItem_FailsClosed(t *testing.T) {
	f := NewFetcher(Config{Timeout: 2 * time.Second})

	t.Run("malformed document", func(t *testing.T) {
		loc := serveFeed(t, 200, `<rss version="2.0"><channel><title>x</title></chan></rss>`, nil)
		_, err := f.FetchItem(context.Background(), loc, "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, IsTransient(err))
	})

	t.Run("not xml", func(t *testing.T) {
		loc := serveFeed(t, 200, "definitely not a feed", nil)
		_, err := f.FetchItem(context.Background(), loc, "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("server error is transient", func(t *testing.T) {
		loc := serveFeed(t, 502, "", nil)
		_, err := f.FetchItem(context.Background(), loc, "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, IsTransient(err))
	})

	t.Run("gone is permanent", func(t *testing.T) {
		loc := serveFeed(t, 410, "", nil)
		_, err := f.FetchItem(context.Background(), loc, "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, IsTransient(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := f.FetchItem(context.Background(), "http://127.0.0.1:1/feed.xml", "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, IsTransient(err))
	})

	t.Run("not a url", func(t *testing.T) {
		_, err := f.FetchItem(context.Background(), "feed2.xml", "x-item")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("oversized", func(t *testing.T) {
		loc := serveFeed(t, 200, sampleFeed, nil)
		small := NewFetcher(Config{Timeout: time.Second, MaxBodyBytes: 64})
		_, err := small.FetchItem(context.Background(), loc, "guid-first")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFindBySegment(t *testing.T) {
	loc := serveFeed(t, 200, sampleFeed, nil)
	f := NewFetcher(Config{Timeout: 2 * time.Second})

	got, err := f.FindBySegment(context.Background(), loc, "I2-second.mp3")
	require.NoError(t, err)
	assert.Equal(t, MatchSegment, got.Match)
	assert.Equal(t, "Second Song", got.Title)

	_, err = f.FindBySegment(context.Background(), loc, "absent.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetcher_DocumentCache(t *testing.T) {
	var hits int32
	loc := serveFeed(t, 200, sampleFeed, &hits)
	f := NewFetcher(Config{Timeout: 2 * time.Second}, WithDocumentCache(cache.New[string, *gofeed.Feed](time.Minute)))

	for _, id := range []string{"guid-first", "guid-second-long", "guid-noaudio"} {
		_, err := f.FetchItem(context.Background(), loc, id)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
