package ranking

import "sort"

// DefaultTopK is the size of the global ranked list when unconfigured.
const DefaultTopK = 100

// YearListSize is the fixed size of each per-year list.
const YearListSize = 10

// RankedAlbum is an AlbumStats snapshot with its derived score, taken at
// ranking time so both ranked views see identical numbers.
type RankedAlbum struct {
	*AlbumStats
	Denominator int
	Percent     float64
}

// Rank orders every aggregate with a denominator above zero.
//
// Comparator, descending unless noted: Percent, five-star occurrences,
// counted tracks, then album name ascending. Album id breaks exact name
// collisions so repeated runs over identical input order identically.
func Rank(albums []*AlbumStats, excl *Exclusions) []RankedAlbum {
	ranked := make([]RankedAlbum, 0, len(albums))
	for _, stats := range albums {
		d := stats.Denominator(excl)
		if d == 0 {
			continue
		}
		ranked = append(ranked, RankedAlbum{
			AlbumStats:  stats,
			Denominator: d,
			Percent:     stats.PercentFor(excl),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Percent != b.Percent {
			return a.Percent > b.Percent
		}
		if a.Histogram[5] != b.Histogram[5] {
			return a.Histogram[5] > b.Histogram[5]
		}
		if a.Counted != b.Counted {
			return a.Counted > b.Counted
		}
		if a.Album.Name != b.Album.Name {
			return a.Album.Name < b.Album.Name
		}
		return a.Album.ID < b.Album.ID
	})

	return ranked
}

// Top returns the first k ranked albums.
func Top(ranked []RankedAlbum, k int) []RankedAlbum {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// ByYear groups the ranked list by release year, keeping the top
// [YearListSize] per year. Albums without a release year are left out of the
// year groups; they remain eligible for the global list. Order within a year
// follows the already-ranked input, so both views share one comparator.
func ByYear(ranked []RankedAlbum) map[int][]RankedAlbum {
	groups := make(map[int][]RankedAlbum)
	for _, album := range ranked {
		year := album.Album.ReleaseYear
		if year == 0 {
			continue
		}
		if len(groups[year]) >= YearListSize {
			continue
		}
		groups[year] = append(groups[year], album)
	}
	return groups
}

// Years returns the keys of a ByYear grouping, newest first.
func Years(groups map[int][]RankedAlbum) []int {
	years := make([]int, 0, len(groups))
	for year := range groups {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
