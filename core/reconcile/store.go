package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Store is the canonical collection of track records keyed by (feed, item).
// It is the only writer of records; every change goes through Upsert.
type Store struct {
	mu      sync.RWMutex
	records map[Key]ResolvedTrack

	snapshot Snapshotter
	saveMu   sync.Mutex
	logger   *zap.Logger
}

// NewStore creates an empty store persisted through snapshot.
// A nil snapshot keeps the store memory-only.
func NewStore(snapshot Snapshotter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		records:  make(map[Key]ResolvedTrack),
		snapshot: snapshot,
		logger:   logger,
	}
}

// Upsert inserts t or merges it into the existing record for its key and
// returns the stored result.
func (s *Store) Upsert(t ResolvedTrack) (ResolvedTrack, error) {
	if t.State == "" {
		t.State = StateUnresolved
	}
	if err := t.Validate(); err != nil {
		return ResolvedTrack{}, err
	}

	key := t.Key()
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if !ok {
		s.records[key] = t
		return t, nil
	}
	merged := Merge(existing, t)
	s.records[key] = merged
	return merged, nil
}

// Get returns the record for (feedID, itemID).
func (s *Store) Get(feedID, itemID string) (ResolvedTrack, error) {
	s.mu.RLock()
	t, ok := s.records[Key{FeedID: feedID, ItemID: itemID}]
	s.mu.RUnlock()
	if !ok {
		return ResolvedTrack{}, fmt.Errorf("%s/%s: %w", feedID, itemID, ErrNotFound)
	}
	return t, nil
}

// ListPending returns every record in state, sorted by key.
func (s *Store) ListPending(state State) []ResolvedTrack {
	s.mu.RLock()
	out := make([]ResolvedTrack, 0)
	for _, t := range s.records {
		if t.State == state {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	sortTracks(out)
	return out
}

// All returns every record sorted by key.
func (s *Store) All() []ResolvedTrack {
	s.mu.RLock()
	out := make([]ResolvedTrack, 0, len(s.records))
	for _, t := range s.records {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sortTracks(out)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Counts returns the number of records per state.
func (s *Store) Counts() map[State]int {
	counts := make(map[State]int, len(States))
	for _, st := range States {
		counts[st] = 0
	}
	s.mu.RLock()
	for _, t := range s.records {
		counts[t.State]++
	}
	s.mu.RUnlock()
	return counts
}

// FindByAudioSegment returns a resolved record whose audio location
// contains segment. Ties are broken by key order.
func (s *Store) FindByAudioSegment(segment string) (ResolvedTrack, bool) {
	if strings.TrimSpace(segment) == "" {
		return ResolvedTrack{}, false
	}
	var matches []ResolvedTrack
	s.mu.RLock()
	for _, t := range s.records {
		if t.State == StateResolved && strings.Contains(t.AudioLocation, segment) {
			matches = append(matches, t)
		}
	}
	s.mu.RUnlock()
	if len(matches) == 0 {
		return ResolvedTrack{}, false
	}
	sortTracks(matches)
	return matches[0], true
}

// Load merges the snapshot's records into the store. Invalid records are
// skipped and logged.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.snapshot == nil {
		return 0, nil
	}
	tracks, err := s.snapshot.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot from %s: %w", s.snapshot.Name(), err)
	}

	loaded := 0
	for _, t := range tracks {
		if _, err := s.Upsert(t); err != nil {
			s.logger.Warn("Skipping invalid snapshot record", zap.String("key", t.Key().String()), zap.Error(err))
			continue
		}
		loaded++
	}
	s.logger.Info("Loaded snapshot", zap.String("backend", s.snapshot.Name()), zap.Int("records", loaded))
	return loaded, nil
}

// Checkpoint saves the full contents through the snapshot backend.
// Concurrent checkpoints are serialized.
func (s *Store) Checkpoint(ctx context.Context) error {
	if s.snapshot == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	tracks := s.All()
	if err := s.snapshot.Save(ctx, tracks); err != nil {
		return fmt.Errorf("save snapshot to %s: %w", s.snapshot.Name(), err)
	}
	s.logger.Debug("Checkpoint saved", zap.String("backend", s.snapshot.Name()), zap.Int("records", len(tracks)))
	return nil
}

func sortTracks(ts []ResolvedTrack) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].FeedID != ts[j].FeedID {
			return ts[i].FeedID < ts[j].FeedID
		}
		return ts[i].ItemID < ts[j].ItemID
	})
}
