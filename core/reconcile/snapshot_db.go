package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRow is the database shape of a ResolvedTrack. The composite key is
// hashed into ID because item identifiers can be long URLs.
type TrackRow struct {
	ID              string     `gorm:"column:id;primaryKey;size:64"`
	FeedID          string     `gorm:"column:feed_id;size:255;not null;index"`
	ItemID          string     `gorm:"column:item_id;type:text;not null"`
	Title           string     `gorm:"column:title;type:text"`
	Artist          string     `gorm:"column:artist;size:512"`
	Album           string     `gorm:"column:album;size:512"`
	AudioLocation   string     `gorm:"column:audio_location;type:text"`
	DurationSeconds int        `gorm:"column:duration_seconds;not null;default:0"`
	ArtworkLocation string     `gorm:"column:artwork_location;type:text"`
	State           string     `gorm:"column:resolution_state;size:16;not null;index"`
	Strategy        string     `gorm:"column:resolution_strategy;size:16"`
	FailureReason   string     `gorm:"column:failure_reason;type:text"`
	FailureClass    string     `gorm:"column:failure_class;size:16"`
	LastAttemptedAt *time.Time `gorm:"column:last_attempted_at"`
	LastResolvedAt  *time.Time `gorm:"column:last_resolved_at"`
	AttemptCount    int        `gorm:"column:attempt_count;not null;default:0"`
}

// TableName overrides the table name.
func (TrackRow) TableName() string {
	return "resolved_tracks"
}

// RowID derives the primary key for a composite key.
func RowID(k Key) string {
	sum := sha256.Sum256([]byte(k.FeedID + "\x00" + k.ItemID))
	return hex.EncodeToString(sum[:])
}

// ToRow converts a record to its database row.
func ToRow(t ResolvedTrack) TrackRow {
	return TrackRow{
		ID:              RowID(t.Key()),
		FeedID:          t.FeedID,
		ItemID:          t.ItemID,
		Title:           t.Title,
		Artist:          t.Artist,
		Album:           t.Album,
		AudioLocation:   t.AudioLocation,
		DurationSeconds: t.DurationSeconds,
		ArtworkLocation: t.ArtworkLocation,
		State:           string(t.State),
		Strategy:        string(t.Strategy),
		FailureReason:   t.FailureReason,
		FailureClass:    string(t.FailureClass),
		LastAttemptedAt: timePtr(t.LastAttemptedAt),
		LastResolvedAt:  timePtr(t.LastResolvedAt),
		AttemptCount:    t.AttemptCount,
	}
}

// ToTrack converts a database row to a record.
func (r TrackRow) ToTrack() ResolvedTrack {
	return ResolvedTrack{
		FeedID:          r.FeedID,
		ItemID:          r.ItemID,
		Title:           r.Title,
		Artist:          r.Artist,
		Album:           r.Album,
		AudioLocation:   r.AudioLocation,
		DurationSeconds: r.DurationSeconds,
		ArtworkLocation: r.ArtworkLocation,
		State:           State(r.State),
		Strategy:        Strategy(r.Strategy),
		FailureReason:   r.FailureReason,
		FailureClass:    FailureClass(r.FailureClass),
		LastAttemptedAt: timeVal(r.LastAttemptedAt),
		LastResolvedAt:  timeVal(r.LastResolvedAt),
		AttemptCount:    r.AttemptCount,
	}
}

// DBSnapshot keeps the snapshot in the resolved_tracks table.
type DBSnapshot struct {
	db        *gorm.DB
	batchSize int
}

// NewDBSnapshot creates a database snapshotter.
func NewDBSnapshot(db *gorm.DB) *DBSnapshot {
	return &DBSnapshot{db: db, batchSize: 200}
}

func (d *DBSnapshot) Name() string { return "database:" + TrackRow{}.TableName() }

// Migrate creates or updates the resolved_tracks table.
func (d *DBSnapshot) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&TrackRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", TrackRow{}.TableName(), err)
	}
	return nil
}

func (d *DBSnapshot) Load(ctx context.Context) ([]ResolvedTrack, error) {
	var rows []TrackRow
	if err := d.db.WithContext(ctx).Order("feed_id, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", TrackRow{}.TableName(), err)
	}
	out := make([]ResolvedTrack, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToTrack())
	}
	return out, nil
}

// Save upserts every record in batches inside one transaction. Rows for
// keys no longer present are left alone; the store never deletes.
func (d *DBSnapshot) Save(ctx context.Context, tracks []ResolvedTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	rows := make([]TrackRow, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, ToRow(t))
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(rows, d.batchSize).Error
		if err != nil {
			return fmt.Errorf("upsert %s: %w", TrackRow{}.TableName(), err)
		}
		return nil
	})
}

// Zero times are stored as NULL; strict MySQL rejects 0000-00-00.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
