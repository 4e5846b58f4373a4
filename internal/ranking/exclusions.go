package ranking

import "github.com/mattdurrant/favourite-albums/internal/models"

// Exclusions holds the set of excluded track ids and the per-album count of
// excluded tracks, built from the filler playlists.
type Exclusions struct {
	trackIDs map[string]struct{}
	perAlbum map[string]int
}

// BuildExclusions folds one or more exclusion playlists into an Exclusions
// set. A track appearing in more than one list (or twice in one) is counted
// against its album only once.
func BuildExclusions(lists ...[]models.Track) *Exclusions {
	e := &Exclusions{
		trackIDs: make(map[string]struct{}),
		perAlbum: make(map[string]int),
	}

	for _, tracks := range lists {
		for _, track := range tracks {
			if track.ID == "" {
				continue
			}
			if _, ok := e.trackIDs[track.ID]; ok {
				continue
			}
			e.trackIDs[track.ID] = struct{}{}
			if track.Album != nil && track.Album.ID != "" {
				e.perAlbum[track.Album.ID]++
			}
		}
	}

	return e
}

// Contains reports whether a track id is excluded from ranking.
func (e *Exclusions) Contains(trackID string) bool {
	_, ok := e.trackIDs[trackID]
	return ok
}

// AlbumExcludedCount returns how many of an album's tracks are excluded.
func (e *Exclusions) AlbumExcludedCount(albumID string) int {
	return e.perAlbum[albumID]
}

// Len returns the number of excluded track ids.
func (e *Exclusions) Len() int {
	return len(e.trackIDs)
}
