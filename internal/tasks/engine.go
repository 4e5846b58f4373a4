package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
	"github.com/mattdurrant/favourite-albums/internal/ranking"
	"github.com/mattdurrant/favourite-albums/internal/repositories"
	"github.com/mattdurrant/favourite-albums/internal/services"
	"github.com/mattdurrant/favourite-albums/internal/tidy"
	"golang.org/x/time/rate"
)

// RunOpts contains configuration for a full ranking pass.
type RunOpts struct {
	StarPlaylists      map[int]string  // tier 1..5 → playlist id, all five required
	ExclusionPlaylists []string        // filler lists, one or two
	Weights            ranking.Weights // nil means the default schedule
	TopK               int             // global list size (default ranking.DefaultTopK)
	FetchWorkers       int             // detail enrichment concurrency (default 4)
	FetchRate          float64         // enrichment requests per second (default 5)
	CacheTTLDays       int             // tracklist cache freshness threshold
}

// RunResult contains all data from a full ranking pass.
type RunResult struct {
	Ranked     []ranking.RankedAlbum         // every rankable album, ordered
	Top        []ranking.RankedAlbum         // the global top-K view
	ByYear     map[int][]ranking.RankedAlbum // per-year top lists
	Years      []int                         // keys of ByYear, newest first
	Tracklists map[string][]models.Track     // enriched tracklists for ranked albums
	BestStars  map[string]int                // track id → highest star seen, for glyphs
	Excluded   int                           // size of the exclusion set
}

// Engine orchestrates full passes over the rating playlists: the ranking run
// and the tidy survey. One Engine is built per process with its dependencies.
type Engine struct {
	source services.SourceService
	cache  *repositories.TracklistRepository // nil disables tracklist caching
	jitter func() time.Duration
	now    func() time.Time
}

// NewEngine creates an Engine with the provided source and optional cache.
func NewEngine(source services.SourceService, cache *repositories.TracklistRepository) *Engine {
	return &Engine{
		source: source,
		cache:  cache,
		jitter: defaultJitter,
		now:    time.Now,
	}
}

// defaultJitter spaces enrichment requests by up to 300ms per worker so the
// pool stays under the source API's radar even at full width.
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(300 * time.Millisecond)))
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full ranking pass: exclusions, tier scans highest star
// first, ranking, then detail enrichment for the albums that made a view.
//
// The pass either completes or fails outright; no partial state survives a
// failure. Tier scans are strictly sequential because the cross-tier dedup
// bias depends on descending order.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("source service not initialized")
	}
	if opts.Weights == nil {
		opts.Weights = ranking.DefaultWeights()
	}
	if opts.TopK <= 0 {
		opts.TopK = ranking.DefaultTopK
	}
	if opts.FetchWorkers <= 0 {
		opts.FetchWorkers = 4
	}
	if opts.FetchWorkers > 8 {
		opts.FetchWorkers = 8
	}
	if opts.FetchRate <= 0 {
		opts.FetchRate = 5.0
	}

	var exclusionLists [][]models.Track
	for i, playlistID := range opts.ExclusionPlaylists {
		e.sendProgress(progress, fetchExclusionsUpdate(i+1, len(opts.ExclusionPlaylists), playlistID))

		tracks, err := e.source.PlaylistTracks(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("exclusion list: %w", err)
		}
		exclusionLists = append(exclusionLists, tracks)
	}
	excl := ranking.BuildExclusions(exclusionLists...)

	agg := ranking.NewAggregator(opts.Weights, excl)
	step := 0
	for star := 5; star >= 1; star-- {
		playlistID, ok := opts.StarPlaylists[star]
		if !ok || playlistID == "" {
			return nil, fmt.Errorf("no playlist configured for %d stars", star)
		}

		tracks, err := e.source.PlaylistTracks(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("%d-star scan: %w", star, err)
		}

		agg.AddTier(star, tracks)
		step++
		e.sendProgress(progress, scanTierUpdate(step, 5, star, len(tracks)))
	}

	ranked := ranking.Rank(agg.Albums(), excl)
	e.sendProgress(progress, rankUpdate(len(ranked)))

	top := ranking.Top(ranked, opts.TopK)
	byYear := ranking.ByYear(ranked)

	tracklists, err := e.enrich(ctx, progress, viewAlbumIDs(top, byYear), opts)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Ranked:     ranked,
		Top:        top,
		ByYear:     byYear,
		Years:      ranking.Years(byYear),
		Tracklists: tracklists,
		BestStars:  agg.BestStars(),
		Excluded:   excl.Len(),
	}, nil
}

// viewAlbumIDs collects the album ids appearing in either ranked view.
func viewAlbumIDs(top []ranking.RankedAlbum, byYear map[int][]ranking.RankedAlbum) []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(albums []ranking.RankedAlbum) {
		for _, album := range albums {
			if _, ok := seen[album.Album.ID]; ok {
				continue
			}
			seen[album.Album.ID] = struct{}{}
			ids = append(ids, album.Album.ID)
		}
	}

	add(top)
	for _, albums := range byYear {
		add(albums)
	}
	return ids
}

type fetchResult struct {
	albumID string
	tracks  []models.Track
	err     error
}

// enrich fetches full tracklists for the given albums through a bounded
// worker pool, consulting the cache first. Workers touch disjoint albums;
// only the progress counter is shared, incremented atomically.
//
// Any fetch failure aborts the whole run. Cache write failures never do:
// a cold cache on the next run only costs refetches.
func (e *Engine) enrich(ctx context.Context, progress chan<- ProgressUpdate, albumIDs []string, opts RunOpts) (map[string][]models.Track, error) {
	out := make(map[string][]models.Track, len(albumIDs))

	cached := make(map[string]repositories.CachedTracklist)
	if e.cache != nil {
		cached = e.cache.Load(opts.CacheTTLDays)
	}

	var missing []string
	for _, albumID := range albumIDs {
		if entry, ok := cached[albumID]; ok {
			out[albumID] = entry.Tracks
			continue
		}
		missing = append(missing, albumID)
	}

	if len(missing) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(opts.FetchRate), 1)
	jobs := make(chan string, len(missing))
	results := make(chan fetchResult, len(missing))

	var completed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < opts.FetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for albumID := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				tracks, err := e.source.AlbumTracks(ctx, albumID)
				results <- fetchResult{albumID: albumID, tracks: tracks, err: err}
				if err == nil {
					e.sendProgress(progress, enrichUpdate(int(completed.Add(1)), len(missing)))
				}

				if d := e.jitter(); d > 0 {
					time.Sleep(d)
				}
			}
		}()
	}

	for _, albumID := range missing {
		jobs <- albumID
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		out[res.albumID] = res.tracks
	}
	if firstErr != nil {
		return nil, fmt.Errorf("album enrichment: %w", firstErr)
	}

	if e.cache != nil {
		entries := make(map[string]repositories.CachedTracklist, len(missing))
		now := e.now()
		for _, albumID := range missing {
			if tracks, ok := out[albumID]; ok {
				entries[albumID] = repositories.CachedTracklist{Tracks: tracks, FetchedAt: now}
			}
		}
		// Best effort; the cache is an optimisation, not state.
		_ = e.cache.Save(entries)
	}

	return out, nil
}

// Tidy scans all five tiers and computes the reconciliation plan. Scan order
// does not affect the plan, unlike the ranking pass.
func (e *Engine) Tidy(ctx context.Context, progress chan<- ProgressUpdate, starPlaylists map[int]string) (*tidy.Plan, error) {
	if e.source == nil {
		return nil, fmt.Errorf("source service not initialized")
	}

	survey := tidy.NewSurvey()
	step := 0
	for star := 5; star >= 1; star-- {
		playlistID, ok := starPlaylists[star]
		if !ok || playlistID == "" {
			return nil, fmt.Errorf("no playlist configured for %d stars", star)
		}

		tracks, err := e.source.PlaylistTracks(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("%d-star scan: %w", star, err)
		}

		survey.AddTier(star, tracks)
		step++
		e.sendProgress(progress, scanTidyUpdate(step, 5, star, len(tracks)))
	}

	plan := survey.BuildPlan()
	removes, adds := plan.Totals()
	e.sendProgress(progress, buildPlanUpdate(removes, adds))

	return plan, nil
}

// ApplyPlan executes a computed tidy plan against the source playlists.
func (e *Engine) ApplyPlan(ctx context.Context, starPlaylists map[int]string, plan *tidy.Plan) error {
	return tidy.Apply(ctx, e.source, starPlaylists, plan)
}
