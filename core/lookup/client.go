package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"track-resolver/core/cache"
	"track-resolver/core/utils"

	"golang.org/x/time/rate"
)

const maxResponseBytes = 2 << 20

// Client is the directory API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	feeds      *cache.Cache[string, *FeedInfo]
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is
// overwritten with the configured request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithFeedCache memoizes LookupFeed results.
func WithFeedCache(fc *cache.Cache[string, *FeedInfo]) Option {
	return func(c *Client) {
		c.feeds = fc
	}
}

// WithClock overrides the time source used to sign requests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLimiter overrides the request pacer.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// NewClient creates a directory API client from the provided configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = timeout
	c.cfg.Timeout = timeout
	c.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return c
}

// LookupFeed fetches a feed's metadata by its stable identifier.
func (c *Client) LookupFeed(ctx context.Context, feedID string) (*FeedInfo, error) {
	if strings.TrimSpace(feedID) == "" {
		return nil, fmt.Errorf("lookup feed: empty feed id: %w", ErrInvalidArgument)
	}
	if c.feeds != nil {
		return c.feeds.GetOrLoad(ctx, feedID, func(ctx context.Context) (*FeedInfo, error) {
			return c.lookupFeed(ctx, feedID)
		})
	}
	return c.lookupFeed(ctx, feedID)
}

func (c *Client) lookupFeed(ctx context.Context, feedID string) (*FeedInfo, error) {
	body, err := c.get(ctx, "/podcasts/byguid", url.Values{"guid": {feedID}})
	if err != nil {
		return nil, fmt.Errorf("lookup feed %s: %w", feedID, err)
	}

	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lookup feed %s: %w", feedID, &StatusError{Malformed: true, Reason: "malformed response: " + err.Error()})
	}
	if !resp.Status {
		return nil, fmt.Errorf("lookup feed %s: %w", feedID, &StatusError{Reason: reasonOr(resp.Description, "status false")})
	}

	var obj feedObject
	found, err := decodeObject(resp.Feed, &obj)
	if err != nil {
		return nil, fmt.Errorf("lookup feed %s: %w", feedID, &StatusError{Malformed: true, Reason: "malformed feed object: " + err.Error()})
	}
	if !found || obj.URL == "" {
		return nil, fmt.Errorf("lookup feed %s: %w", feedID, &StatusError{Reason: "feed has no location"})
	}

	artwork := obj.Artwork
	if artwork == "" {
		artwork = obj.Image
	}
	return &FeedInfo{
		FeedID:   feedID,
		Title:    obj.Title,
		Location: obj.URL,
		Artwork:  artwork,
		Author:   obj.Author,
	}, nil
}

// LookupItem fetches one item of a feed by its stable identifier.
// A found but incomplete item is returned without error; callers decide
// whether it is good enough.
func (c *Client) LookupItem(ctx context.Context, feedID, itemID string) (*ItemInfo, error) {
	if strings.TrimSpace(feedID) == "" || strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("lookup item: empty identifier: %w", ErrInvalidArgument)
	}

	body, err := c.get(ctx, "/episodes/byguid", url.Values{"guid": {itemID}, "podcastguid": {feedID}})
	if err != nil {
		return nil, fmt.Errorf("lookup item %s/%s: %w", feedID, itemID, err)
	}

	var resp itemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lookup item %s/%s: %w", feedID, itemID, &StatusError{Malformed: true, Reason: "malformed response: " + err.Error()})
	}
	if !resp.Status {
		return nil, fmt.Errorf("lookup item %s/%s: %w", feedID, itemID, &StatusError{Reason: reasonOr(resp.Description, "status false")})
	}

	var obj episodeObject
	found, err := decodeObject(resp.Episode, &obj)
	if err != nil {
		return nil, fmt.Errorf("lookup item %s/%s: %w", feedID, itemID, &StatusError{Malformed: true, Reason: "malformed episode object: " + err.Error()})
	}
	if !found {
		return nil, fmt.Errorf("lookup item %s/%s: %w", feedID, itemID, &StatusError{Reason: "no episode in response"})
	}

	image := obj.Image
	if image == "" {
		image = obj.FeedImage
	}
	return &ItemInfo{
		FeedID:          feedID,
		ItemID:          itemID,
		Title:           strings.TrimSpace(obj.Title),
		AudioLocation:   strings.TrimSpace(obj.EnclosureURL),
		DurationSeconds: utils.ParseClockSeconds(obj.Duration),
		Image:           image,
		Author:          obj.Author,
	}, nil
}

// get performs one signed GET. It does not retry.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Signed per request; a stale X-Auth-Date is rejected upstream.
	for k, v := range BuildAuthHeaders(c.cfg.APIKey, c.cfg.APISecret, c.now()) {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &ThrottledError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now())}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Reason: reasonOr(snippet(body), http.StatusText(resp.StatusCode))}
	}
	return body, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func reasonOr(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return reason
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
