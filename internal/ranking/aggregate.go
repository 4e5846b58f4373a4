package ranking

import "github.com/mattdurrant/favourite-albums/internal/models"

// AlbumStats owns the mutable running aggregate for one album during a pass.
type AlbumStats struct {
	Album       models.Album // metadata captured from the first record seen
	Counted     int          // rated tracks kept after dedup and exclusion
	WeightedSum float64
	Histogram   [6]int // occurrences per star tier, indexed 1..5
}

// Denominator derives the album's eligible-track count: the reported total
// minus the album's excluded tracks, clamped to zero.
//
// When the source never reported a total, the counted-track number stands in.
// That approximation can overstate Percent for lightly-rated large albums;
// it is documented behaviour, kept in preference to a full tracklist fetch.
func (s *AlbumStats) Denominator(excl *Exclusions) int {
	total := s.Album.TotalTracks
	if total <= 0 {
		total = s.Counted
	}

	d := total - excl.AlbumExcludedCount(s.Album.ID)
	if d < 0 {
		d = 0
	}
	return d
}

// PercentFor computes the album's score against the given exclusions.
// Never stored: always recomputed so it reflects the latest denominator.
func (s *AlbumStats) PercentFor(excl *Exclusions) float64 {
	d := s.Denominator(excl)
	if d == 0 {
		return 0
	}
	return s.WeightedSum / float64(d) * 100
}

// Aggregator folds rated-track playlists into per-album statistics.
//
// Tiers must be fed highest star first: the global seen-set means the first
// tier to present a track wins the count, which intentionally biases
// cross-tier duplicates toward the higher star.
type Aggregator struct {
	weights  Weights
	excl     *Exclusions
	albums   map[string]*AlbumStats
	seen     map[string]struct{}
	bestStar map[string]int
}

// NewAggregator creates an Aggregator for one full scan pass.
func NewAggregator(weights Weights, excl *Exclusions) *Aggregator {
	return &Aggregator{
		weights:  weights,
		excl:     excl,
		albums:   make(map[string]*AlbumStats),
		seen:     make(map[string]struct{}),
		bestStar: make(map[string]int),
	}
}

// AddTier folds one star tier's tracks into the aggregate map.
func (a *Aggregator) AddTier(star int, tracks []models.Track) {
	weight := a.weights.For(star)

	for _, track := range tracks {
		if track.ID == "" || track.Album == nil || track.Album.ID == "" {
			continue
		}
		if track.Album.Kind == models.KindSingle || track.Album.Kind == models.KindCompilation {
			continue
		}
		if a.excl.Contains(track.ID) {
			continue
		}

		// Display-only: never affects counts.
		if star > a.bestStar[track.ID] {
			a.bestStar[track.ID] = star
		}

		if _, dup := a.seen[track.ID]; dup {
			continue
		}
		a.seen[track.ID] = struct{}{}

		stats, ok := a.albums[track.Album.ID]
		if !ok {
			stats = &AlbumStats{Album: *track.Album}
			a.albums[track.Album.ID] = stats
		} else if stats.Album.TotalTracks <= 0 && track.Album.TotalTracks > 0 {
			stats.Album.TotalTracks = track.Album.TotalTracks
		}

		stats.Counted++
		stats.WeightedSum += weight
		if star >= 1 && star <= 5 {
			stats.Histogram[star]++
		}
	}
}

// Albums returns every aggregate created during the pass, in map order.
func (a *Aggregator) Albums() []*AlbumStats {
	out := make([]*AlbumStats, 0, len(a.albums))
	for _, stats := range a.albums {
		out = append(out, stats)
	}
	return out
}

// Album returns the aggregate for an album id, nil when no track was counted for it.
func (a *Aggregator) Album(albumID string) *AlbumStats {
	return a.albums[albumID]
}

// BestStar returns the highest star tier seen for a track during the pass,
// 0 for tracks never presented. Informational, for display glyphs only.
func (a *Aggregator) BestStar(trackID string) int {
	return a.bestStar[trackID]
}

// BestStars returns a copy of the best-star map for rendering.
func (a *Aggregator) BestStars() map[string]int {
	out := make(map[string]int, len(a.bestStar))
	for id, star := range a.bestStar {
		out[id] = star
	}
	return out
}
