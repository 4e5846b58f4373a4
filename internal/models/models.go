package models

import (
	"strconv"
	"strings"
	"time"
)

// AlbumKind classifies an album as reported by the source API.
type AlbumKind string

const (
	KindAlbum       AlbumKind = "album"
	KindSingle      AlbumKind = "single"
	KindCompilation AlbumKind = "compilation"
	KindUnknown     AlbumKind = ""
)

// ParseAlbumKind maps the wire album_type to an AlbumKind.
// Unrecognised values map to KindUnknown rather than being guessed at.
func ParseAlbumKind(s string) AlbumKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "album":
		return KindAlbum
	case "single":
		return KindSingle
	case "compilation":
		return KindCompilation
	default:
		return KindUnknown
	}
}

// Album represents an album as reported by the source API.
type Album struct {
	ID          string
	Name        string
	Artists     []string
	ImageURL    string
	URL         string
	Kind        AlbumKind
	TotalTracks int // as reported; may be zero when the source omits it
	ReleaseYear int // 0 when unknown
}

// ArtistLine joins the album's artists for display.
func (a *Album) ArtistLine() string {
	return strings.Join(a.Artists, ", ")
}

// YearFromReleaseDate extracts the year from a Spotify release_date, which may
// be "2006", "2006-05" or "2006-05-12". Returns 0 when unparseable.
func YearFromReleaseDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// Track represents a track as a member of a rating or exclusion playlist.
type Track struct {
	ID      string
	Name    string
	Album   *Album    // nil for local files and removed tracks
	AddedAt time.Time // when the track was added to the playlist; zero when unknown
}
