package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
)

// CachedTracklist holds an album's full tracklist and when it was fetched.
type CachedTracklist struct {
	Tracks    []models.Track
	FetchedAt time.Time
}

// Fresh reports whether the entry is younger than the TTL.
func (c CachedTracklist) Fresh(ttlDays int, now time.Time) bool {
	return now.Sub(c.FetchedAt) < time.Duration(ttlDays)*24*time.Hour
}

// TracklistRepository persists album tracklists in SQLite so detail
// enrichment can skip refetching albums seen on a recent run.
//
// Loads degrade rather than fail: an unreadable cache behaves as an empty
// one, because a cold cache only costs extra fetches.
type TracklistRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTracklistRepository creates a TracklistRepository over an open database.
func NewTracklistRepository(db *sql.DB) *TracklistRepository {
	return &TracklistRepository{db: db, now: time.Now}
}

// Load returns every cache entry still inside the TTL, keyed by album id.
// Any read or decode failure yields an empty map, never an error.
func (r *TracklistRepository) Load(ttlDays int) map[string]CachedTracklist {
	out := make(map[string]CachedTracklist)

	rows, err := r.db.Query(`SELECT album_id, tracks_json, fetched_at FROM album_tracklists`)
	if err != nil {
		return out
	}
	defer rows.Close()

	now := r.now()
	for rows.Next() {
		var albumID, tracksJSON string
		var fetchedAt time.Time
		if err := rows.Scan(&albumID, &tracksJSON, &fetchedAt); err != nil {
			continue
		}

		var tracks []models.Track
		if err := json.Unmarshal([]byte(tracksJSON), &tracks); err != nil {
			continue
		}

		entry := CachedTracklist{Tracks: tracks, FetchedAt: fetchedAt}
		if entry.Fresh(ttlDays, now) {
			out[albumID] = entry
		}
	}

	return out
}

// Save upserts the full map of tracklists.
func (r *TracklistRepository) Save(entries map[string]CachedTracklist) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache save: %w", err)
	}

	for albumID, entry := range entries {
		data, err := json.Marshal(entry.Tracks)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode tracklist for %s: %w", albumID, err)
		}

		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO album_tracklists (album_id, tracks_json, fetched_at)
			VALUES (?, ?, ?)
		`, albumID, string(data), entry.FetchedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save tracklist for %s: %w", albumID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache save: %w", err)
	}
	return nil
}

// Count returns the number of cached tracklists, fresh or stale.
func (r *TracklistRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM album_tracklists`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// Clear drops every cached tracklist.
func (r *TracklistRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM album_tracklists`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
