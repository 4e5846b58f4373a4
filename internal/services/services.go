// package services defines interface SourceService for the rating source API
package services

import (
	"context"

	"github.com/mattdurrant/favourite-albums/internal/models"
)

// SourceService defines the contract against the rating source (Spotify).
//
// Playlist reads walk pagination transparently and are restartable per call,
// not resumable mid-stream: a failure on a later page propagates a typed error
// and the caller gets no partial results. Mutations are idempotent batch
// operations, internally chunked to the source API's batch limit.
type SourceService interface {
	// Authenticate performs OAuth authentication with the service.
	// Expects either an "access_token" or "auth_code" in credentials.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// PlaylistTracks retrieves every track of a playlist, following pagination.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// AlbumTracks retrieves the full tracklist of an album.
	AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error)

	// AddTracks appends the given tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveTracks removes every occurrence of the given tracks from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
