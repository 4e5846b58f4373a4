package repositories

import (
	"testing"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
	"github.com/mattdurrant/favourite-albums/internal/shared"
)

func testRepo(t *testing.T) *TracklistRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewTracklistRepository(db)
}

func TestTracklistRepository(t *testing.T) {
	tracks := []models.Track{
		{ID: "t1", Name: "Opener"},
		{ID: "t2", Name: "Closer"},
	}

	t.Run("save and load round trip", func(t *testing.T) {
		repo := testRepo(t)

		entries := map[string]CachedTracklist{
			"alb1": {Tracks: tracks, FetchedAt: time.Now().UTC()},
		}
		if err := repo.Save(entries); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded := repo.Load(30)
		entry, ok := loaded["alb1"]
		if !ok {
			t.Fatal("expected alb1 in cache")
		}
		if len(entry.Tracks) != 2 || entry.Tracks[0].ID != "t1" {
			t.Errorf("unexpected tracks: %+v", entry.Tracks)
		}
	})

	t.Run("stale entries are filtered by TTL", func(t *testing.T) {
		repo := testRepo(t)

		entries := map[string]CachedTracklist{
			"old": {Tracks: tracks, FetchedAt: time.Now().UTC().Add(-40 * 24 * time.Hour)},
			"new": {Tracks: tracks, FetchedAt: time.Now().UTC()},
		}
		if err := repo.Save(entries); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded := repo.Load(30)
		if _, ok := loaded["old"]; ok {
			t.Error("stale entry should be filtered")
		}
		if _, ok := loaded["new"]; !ok {
			t.Error("fresh entry should survive")
		}

		// Stale rows stay on disk until cleared.
		count, err := repo.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 rows on disk, got %d", count)
		}
	})

	t.Run("save replaces existing entries", func(t *testing.T) {
		repo := testRepo(t)

		first := map[string]CachedTracklist{
			"alb1": {Tracks: tracks[:1], FetchedAt: time.Now().UTC()},
		}
		if err := repo.Save(first); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		second := map[string]CachedTracklist{
			"alb1": {Tracks: tracks, FetchedAt: time.Now().UTC()},
		}
		if err := repo.Save(second); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		loaded := repo.Load(30)
		if got := len(loaded["alb1"].Tracks); got != 2 {
			t.Errorf("expected replacement with 2 tracks, got %d", got)
		}
	})

	t.Run("load from a missing table yields an empty cache", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		repo := NewTracklistRepository(db)
		if loaded := repo.Load(30); len(loaded) != 0 {
			t.Errorf("expected empty cache, got %d entries", len(loaded))
		}
	})

	t.Run("clear removes every row", func(t *testing.T) {
		repo := testRepo(t)

		entries := map[string]CachedTracklist{
			"alb1": {Tracks: tracks, FetchedAt: time.Now().UTC()},
		}
		if err := repo.Save(entries); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty cache, got %d rows", count)
		}
	})
}
