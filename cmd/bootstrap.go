package cmd

import (
	"context"
	"fmt"

	"track-resolver/core/cache"
	"track-resolver/core/config"
	"track-resolver/core/database"
	"track-resolver/core/feedfetch"
	"track-resolver/core/logger"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
	"track-resolver/core/resolver"
	"track-resolver/core/scheduler"
	"track-resolver/core/storage"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// services holds everything a command needs once configuration is loaded.
type services struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	objects storage.Client
	store   *reconcile.Store
}

// bootstrap loads configuration, builds the logger, opens the snapshot
// backend and loads the store from it.
func bootstrap(ctx context.Context) (*services, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	rt := &services{cfg: cfg, logger: logg}
	snap, err := rt.snapshotter(ctx)
	if err != nil {
		return nil, err
	}

	rt.store = reconcile.NewStore(snap, logg)
	n, err := rt.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	logg.Info("Store loaded", zap.String("snapshot", snap.Name()), zap.Int("records", n))
	return rt, nil
}

// snapshotter opens the configured backend, connecting to the database or
// object storage only when that backend is selected.
func (rt *services) snapshotter(ctx context.Context) (reconcile.Snapshotter, error) {
	switch rt.cfg.Snapshot.Backend {
	case reconcile.BackendDatabase:
		db, err := database.Connect(rt.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database connection required: %w", err)
		}
		rt.db = db
		snap := reconcile.NewDBSnapshot(db)
		if err := snap.Migrate(ctx); err != nil {
			return nil, err
		}
		return snap, nil

	case reconcile.BackendObject:
		client, err := storage.NewClient(rt.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, rt.cfg.Storage.Bucket, rt.cfg.Storage.Region); err != nil {
			return nil, err
		}
		rt.objects = client
		return reconcile.NewObjectSnapshot(client, rt.cfg.Storage.Bucket, rt.cfg.Storage.Object), nil

	default:
		return reconcile.NewFileSnapshot(rt.cfg.Snapshot.Path), nil
	}
}

// newScheduler wires the resolution pipeline: paced API client and feed
// fetcher sharing the cache TTL, fragment matchers over the feed and the
// store, and the batch scheduler on top.
func (rt *services) newScheduler(overrides func(*scheduler.Config)) (*scheduler.Scheduler, error) {
	if err := rt.cfg.RequireLookup(); err != nil {
		return nil, err
	}

	schedCfg := rt.cfg.Scheduler
	if overrides != nil {
		overrides(&schedCfg)
	}
	if err := schedCfg.Validate(); err != nil {
		return nil, err
	}

	api := lookup.NewClient(rt.cfg.Lookup,
		lookup.WithFeedCache(cache.New[string, *lookup.FeedInfo](rt.cfg.Cache.TTL)),
	)
	fetcher := feedfetch.NewFetcher(rt.cfg.Fetcher,
		feedfetch.WithDocumentCache(cache.New[string, *gofeed.Feed](rt.cfg.Cache.TTL)),
	)
	res := resolver.New(api, fetcher, rt.cfg.Resolver,
		resolver.WithLogger(rt.logger),
		resolver.WithMatcher(resolver.ChainMatcher{
			resolver.FeedSegmentMatcher{Finder: fetcher},
			resolver.StoreSegmentMatcher{Index: rt.store},
		}),
	)

	return scheduler.New(res, rt.store, schedCfg, scheduler.WithLogger(rt.logger)), nil
}

func (rt *services) close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = rt.logger.Sync()
}
