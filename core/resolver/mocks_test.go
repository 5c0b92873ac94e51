package resolver

import (
	"context"

	"track-resolver/core/feedfetch"
	"track-resolver/core/lookup"

	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) LookupFeed(ctx context.Context, feedID string) (*lookup.FeedInfo, error) {
	args := m.Called(ctx, feedID)
	feed, _ := args.Get(0).(*lookup.FeedInfo)
	return feed, args.Error(1)
}

func (m *mockAPI) LookupItem(ctx context.Context, feedID, itemID string) (*lookup.ItemInfo, error) {
	args := m.Called(ctx, feedID, itemID)
	item, _ := args.Get(0).(*lookup.ItemInfo)
	return item, args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchItem(ctx context.Context, location, itemID string) (*feedfetch.ItemFields, error) {
	args := m.Called(ctx, location, itemID)
	fields, _ := args.Get(0).(*feedfetch.ItemFields)
	return fields, args.Error(1)
}

func (m *mockFetcher) FindBySegment(ctx context.Context, location, segment string) (*feedfetch.ItemFields, error) {
	args := m.Called(ctx, location, segment)
	fields, _ := args.Get(0).(*feedfetch.ItemFields)
	return fields, args.Error(1)
}

type matcherFunc func(ctx context.Context, f Fragment) (*Candidate, error)

func (fn matcherFunc) Match(ctx context.Context, f Fragment) (*Candidate, error) {
	return fn(ctx, f)
}
