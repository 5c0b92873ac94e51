package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Snapshotter persists the store as a whole.
type Snapshotter interface {
	// Name identifies the backend in logs.
	Name() string
	// Load returns every persisted record. A missing snapshot is empty, not an error.
	Load(ctx context.Context) ([]ResolvedTrack, error)
	// Save replaces the persisted contents with tracks.
	Save(ctx context.Context, tracks []ResolvedTrack) error
}

// EncodeSnapshot writes tracks as a flat JSON array.
func EncodeSnapshot(w io.Writer, tracks []ResolvedTrack) error {
	if tracks == nil {
		tracks = []ResolvedTrack{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tracks)
}

// DecodeSnapshot reads a flat JSON array of tracks.
func DecodeSnapshot(r io.Reader) ([]ResolvedTrack, error) {
	var tracks []ResolvedTrack
	if err := json.NewDecoder(r).Decode(&tracks); err != nil {
		if errors.Is(err, io.EOF) {
			return []ResolvedTrack{}, nil
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tracks, nil
}

// FileSnapshot keeps the snapshot in a local JSON file. Saves go through a
// temporary file and a rename, so an interrupted save leaves the previous
// snapshot intact.
type FileSnapshot struct {
	Path string
}

// NewFileSnapshot creates a file-backed snapshotter.
func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{Path: path}
}

func (f *FileSnapshot) Name() string { return "file:" + f.Path }

func (f *FileSnapshot) Load(ctx context.Context) ([]ResolvedTrack, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []ResolvedTrack{}, nil
		}
		return nil, err
	}
	defer file.Close()
	return DecodeSnapshot(file)
}

func (f *FileSnapshot) Save(ctx context.Context, tracks []ResolvedTrack) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeSnapshot(tmp, tracks); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}
