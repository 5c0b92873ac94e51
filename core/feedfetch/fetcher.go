package feedfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"track-resolver/core/cache"
	"track-resolver/core/utils"

	"github.com/mmcdole/gofeed"
)

// ErrNotFound is returned when no item matches or the document is unusable.
var ErrNotFound = errors.New("item not found in feed")

// ErrMalformed is returned for documents that cannot be parsed. It matches ErrNotFound.
var ErrMalformed = fmt.Errorf("malformed document: %w", ErrNotFound)

// Fetcher retrieves feed documents and extracts items from them.
type Fetcher struct {
	cfg    Config
	client *http.Client
	docs   *cache.Cache[string, *gofeed.Feed]
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		if hc != nil {
			f.client = hc
		}
	}
}

// WithDocumentCache memoizes parsed documents by location.
func WithDocumentCache(c *cache.Cache[string, *gofeed.Feed]) Option {
	return func(f *Fetcher) {
		f.docs = c
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 20 << 20
	}
	f := &Fetcher{cfg: cfg, client: &http.Client{}}
	for _, opt := range opts {
		opt(f)
	}
	f.client.Timeout = cfg.Timeout
	return f
}

// FetchItem retrieves the document at location and returns the entry
// identified by itemID.
func (f *Fetcher) FetchItem(ctx context.Context, location, itemID string) (*ItemFields, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("fetch item: empty item id: %w", ErrNotFound)
	}
	feed, err := f.document(ctx, location)
	if err != nil {
		return nil, err
	}

	item, kind := matchItem(feed.Items, itemID)
	if item == nil {
		return nil, fmt.Errorf("fetch item %s from %s: %w", itemID, location, ErrNotFound)
	}
	return extract(feed, item, kind), nil
}

// FindBySegment returns the first entry whose enclosure URL contains segment.
func (f *Fetcher) FindBySegment(ctx context.Context, location, segment string) (*ItemFields, error) {
	if strings.TrimSpace(segment) == "" {
		return nil, fmt.Errorf("find by segment: empty segment: %w", ErrNotFound)
	}
	feed, err := f.document(ctx, location)
	if err != nil {
		return nil, err
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if enc := enclosureURL(item); enc != "" && strings.Contains(enc, segment) {
			return extract(feed, item, MatchSegment), nil
		}
	}
	return nil, fmt.Errorf("find segment %s in %s: %w", segment, location, ErrNotFound)
}

func (f *Fetcher) document(ctx context.Context, location string) (*gofeed.Feed, error) {
	if !utils.LooksLikeURL(location) {
		return nil, fmt.Errorf("fetch %q: not an http location: %w", location, ErrNotFound)
	}
	if f.docs != nil {
		return f.docs.GetOrLoad(ctx, location, func(ctx context.Context) (*gofeed.Feed, error) {
			return f.fetch(ctx, location)
		})
	}
	return f.fetch(ctx, location)
}

// fetch downloads and parses a document. Every failure wraps ErrNotFound;
// a recovered parser panic included.
func (f *Fetcher) fetch(ctx context.Context, location string) (feed *gofeed.Feed, err error) {
	defer func() {
		if r := recover(); r != nil {
			feed = nil
			err = fmt.Errorf("parse %s: %v: %w", location, r, ErrMalformed)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %v: %w", location, err, ErrNotFound)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Location: location, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("document %s exceeds %d bytes: %w", location, f.cfg.MaxBodyBytes, ErrNotFound)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", location, err, ErrMalformed)
	}
	return parsed, nil
}

// FetchError is a network or HTTP failure retrieving a document.
// It matches ErrNotFound so callers that only care about presence can ignore it.
type FetchError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.Location, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrNotFound equivalence.
func (e *FetchError) Is(target error) bool {
	return target == ErrNotFound
}

// Transient reports whether a retry could plausibly succeed.
func (e *FetchError) Transient() bool {
	return e.Err != nil || e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether err is a retryable fetch failure.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
