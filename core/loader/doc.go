// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface and mounts its own routes.
// The Manager keeps features in registration order and loads the enabled
// ones in LoadAll, failing fast on the first error.
//
//	mgr := loader.NewManager(logger)
//	mgr.Register(tracks.NewFeature(store, sched, logger))
//	if err := mgr.LoadAll(app); err != nil {
//	    return err
//	}
package loader
