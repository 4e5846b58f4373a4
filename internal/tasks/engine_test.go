package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
	"github.com/mattdurrant/favourite-albums/internal/repositories"
	"github.com/mattdurrant/favourite-albums/internal/shared"
)

type mockSource struct {
	mu              sync.Mutex
	playlists       map[string][]models.Track
	albumTracks     map[string][]models.Track
	playlistErr     map[string]error
	albumErr        map[string]error
	albumFetchCount map[string]int
}

func (m *mockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *mockSource) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if err := m.playlistErr[playlistID]; err != nil {
		return nil, err
	}
	tracks, ok := m.playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist not found: %s", playlistID)
	}
	return tracks, nil
}

func (m *mockSource) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	m.mu.Lock()
	if m.albumFetchCount == nil {
		m.albumFetchCount = make(map[string]int)
	}
	m.albumFetchCount[albumID]++
	m.mu.Unlock()

	if err := m.albumErr[albumID]; err != nil {
		return nil, err
	}
	return m.albumTracks[albumID], nil
}

func (m *mockSource) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return nil
}

func (m *mockSource) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return nil
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) fetches(albumID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.albumFetchCount[albumID]
}

var testStarPlaylists = map[int]string{
	5: "stars5", 4: "stars4", 3: "stars3", 2: "stars2", 1: "stars1",
}

func testEngine(source *mockSource, cache *repositories.TracklistRepository) *Engine {
	engine := NewEngine(source, cache)
	engine.jitter = func() time.Duration { return 0 }
	return engine
}

func ratedTrack(id string, album *models.Album) models.Track {
	return models.Track{ID: id, Name: "Track " + id, Album: album}
}

func rankedSource() *mockSource {
	great := &models.Album{ID: "great", Name: "Great Album", Kind: models.KindAlbum, TotalTracks: 4, ReleaseYear: 2001}
	good := &models.Album{ID: "good", Name: "Good Album", Kind: models.KindAlbum, TotalTracks: 4, ReleaseYear: 2002}

	return &mockSource{
		playlists: map[string][]models.Track{
			"stars5": {ratedTrack("g1", great), ratedTrack("g2", great)},
			"stars4": {ratedTrack("g3", great), ratedTrack("d1", good)},
			"stars3": {ratedTrack("d2", good)},
			"stars2": {},
			"stars1": {ratedTrack("filler-1", good)},
			"filler": {ratedTrack("filler-1", good)},
		},
		albumTracks: map[string][]models.Track{
			"great": {{ID: "g1"}, {ID: "g2"}, {ID: "g3"}, {ID: "g4"}},
			"good":  {{ID: "d1"}, {ID: "d2"}, {ID: "d3"}, {ID: "d4"}},
		},
	}
}

func baseOpts() RunOpts {
	return RunOpts{
		StarPlaylists:      testStarPlaylists,
		ExclusionPlaylists: []string{"filler"},
		FetchRate:          1000,
		CacheTTLDays:       30,
	}
}

func TestEngine_Run(t *testing.T) {
	t.Run("full pass ranks, excludes and enriches", func(t *testing.T) {
		source := rankedSource()
		result, err := testEngine(source, nil).Run(context.Background(), nil, baseOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Excluded != 1 {
			t.Errorf("expected 1 excluded track, got %d", result.Excluded)
		}

		if len(result.Ranked) != 2 {
			t.Fatalf("expected 2 ranked albums, got %d", len(result.Ranked))
		}

		// great: weights 1.0+1.0+0.8 = 2.8 over 4 tracks = 70%.
		// good: d1 (0.8) + d2 (0.5) over 4-1 excluded = 3, ≈ 43.3%.
		first := result.Ranked[0]
		if first.Album.ID != "great" {
			t.Errorf("expected great first, got %s", first.Album.ID)
		}
		if first.Percent < 70.0-1e-9 || first.Percent > 70.0+1e-9 {
			t.Errorf("expected 70%%, got %v", first.Percent)
		}
		if second := result.Ranked[1]; second.Denominator != 3 {
			t.Errorf("expected denominator 3 after exclusion, got %d", second.Denominator)
		}

		for _, albumID := range []string{"great", "good"} {
			if len(result.Tracklists[albumID]) != 4 {
				t.Errorf("expected enriched tracklist for %s", albumID)
			}
		}

		if result.BestStars["g1"] != 5 || result.BestStars["d1"] != 4 {
			t.Errorf("unexpected best stars: %v", result.BestStars)
		}

		if len(result.Years) != 2 || result.Years[0] != 2002 {
			t.Errorf("expected years [2002 2001], got %v", result.Years)
		}
	})

	t.Run("tier scan failure aborts the run", func(t *testing.T) {
		source := rankedSource()
		source.playlistErr = map[string]error{"stars3": fmt.Errorf("boom")}

		_, err := testEngine(source, nil).Run(context.Background(), nil, baseOpts())
		if err == nil {
			t.Fatal("expected the run to fail")
		}
	})

	t.Run("exclusion fetch failure aborts the run", func(t *testing.T) {
		source := rankedSource()
		source.playlistErr = map[string]error{"filler": fmt.Errorf("boom")}

		_, err := testEngine(source, nil).Run(context.Background(), nil, baseOpts())
		if err == nil {
			t.Fatal("expected the run to fail")
		}
	})

	t.Run("enrichment failure aborts the run", func(t *testing.T) {
		source := rankedSource()
		source.albumErr = map[string]error{"good": fmt.Errorf("boom")}

		_, err := testEngine(source, nil).Run(context.Background(), nil, baseOpts())
		if err == nil {
			t.Fatal("expected the run to fail")
		}
	})

	t.Run("fresh cache entries skip fetching", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}

		repo := repositories.NewTracklistRepository(db)
		if err := repo.Save(map[string]repositories.CachedTracklist{
			"great": {Tracks: []models.Track{{ID: "g1"}}, FetchedAt: time.Now().UTC()},
		}); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		source := rankedSource()
		result, err := testEngine(source, repo).Run(context.Background(), nil, baseOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if source.fetches("great") != 0 {
			t.Error("cached album should not be refetched")
		}
		if source.fetches("good") != 1 {
			t.Errorf("uncached album should be fetched once, got %d", source.fetches("good"))
		}

		// The fetched album lands in the cache for the next run.
		loaded := repo.Load(30)
		if _, ok := loaded["good"]; !ok {
			t.Error("expected the fetched tracklist to be cached")
		}
		_ = result
	})

	t.Run("progress updates are delivered without blocking", func(t *testing.T) {
		source := rankedSource()
		progress := make(chan ProgressUpdate, 64)

		if _, err := testEngine(source, nil).Run(context.Background(), progress, baseOpts()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		phases := make(map[Phase]bool)
		for update := range progress {
			phases[update.Phase] = true
		}
		for _, phase := range []Phase{FetchExclusions, ScanTier, RankAlbums, EnrichAlbums} {
			if !phases[phase] {
				t.Errorf("expected at least one %s update", phase)
			}
		}
	})
}

func TestEngine_Tidy(t *testing.T) {
	t.Run("survey produces a plan across tiers", func(t *testing.T) {
		added := func(id string, unix int64) models.Track {
			return models.Track{ID: id, AddedAt: time.Unix(unix, 0).UTC()}
		}

		source := &mockSource{
			playlists: map[string][]models.Track{
				"stars5": {added("a", 10), added("a", 12)},
				"stars4": {},
				"stars3": {added("a", 5)},
				"stars2": {},
				"stars1": {},
			},
		}

		plan, err := testEngine(source, nil).Tidy(context.Background(), nil, testStarPlaylists)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		removes, adds := plan.Totals()
		if removes != 2 || adds != 1 {
			t.Errorf("Totals() = (%d, %d), want (2, 1)", removes, adds)
		}
	})

	t.Run("scan failure propagates", func(t *testing.T) {
		source := &mockSource{
			playlists:   map[string][]models.Track{},
			playlistErr: map[string]error{"stars5": fmt.Errorf("boom")},
		}

		if _, err := testEngine(source, nil).Tidy(context.Background(), nil, testStarPlaylists); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("missing tier binding fails", func(t *testing.T) {
		source := &mockSource{playlists: map[string][]models.Track{}}

		_, err := testEngine(source, nil).Tidy(context.Background(), nil, map[int]string{5: "stars5"})
		if err == nil {
			t.Fatal("expected an error for missing tiers")
		}
	})
}
