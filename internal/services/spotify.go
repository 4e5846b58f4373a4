// Spotify API implementation of [SourceService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
	"github.com/mattdurrant/favourite-albums/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// pageLimit is the page size for playlist and album track reads.
	pageLimit = 100

	// mutationChunkSize bounds the number of tracks per mutation call,
	// kept under Spotify's documented limit of 100.
	mutationChunkSize = 90

	// rateLimitFloor is the minimum wait after a 429 when the server
	// sends no usable Retry-After header.
	rateLimitFloor = time.Second
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AlbumType    string          `json:"album_type"` // album, single, compilation
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"` // track, episode
	IsLocal bool            `json:"is_local"`
	Artists []SpotifyArtist `json:"artists"`
	Album   *SpotifyAlbum   `json:"album"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents one page of a playlist's tracks.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifySimpleTrack represents a track in an album tracklist response.
type SpotifySimpleTrack struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// SpotifyPaginatedAlbumTracks represents one page of an album's tracklist.
type SpotifyPaginatedAlbumTracks struct {
	Items  []SpotifySimpleTrack `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Next   *string              `json:"next"`
}

// SpotifyService implements [SourceService] for Spotify API interactions.
// Uses [oauth2] for authentication and provides playlist reads and mutations.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
	sleep      func(time.Duration)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		sleep:      time.Sleep,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(&oauth2.Token{AccessToken: accessToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrAuthFailed)
}

// SetToken installs a previously obtained token and an HTTP client that refreshes it.
func (s *SpotifyService) SetToken(token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(context.Background(), token)
}

// Token returns the current token for persistence, nil before authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// OAuthConfig returns the OAuth2 config for the interactive login flow.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// A 429 response is retried exactly once after waiting the server-specified
// Retry-After interval (floor 1s); a second 429, or any other non-2xx status,
// escalates to [shared.ErrRequestFailed].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	retried := false
	for {
		status, retryAfter, err := s.doRequestOnce(ctx, method, endpoint, body, result)
		if err != nil {
			return err
		}

		if status == http.StatusTooManyRequests {
			if retried {
				return fmt.Errorf("%w: still rate limited after retry: %s %s", shared.ErrRequestFailed, method, endpoint)
			}
			retried = true
			s.sleep(retryAfter)
			continue
		}

		if status < 200 || status >= 300 {
			return fmt.Errorf("%w: status %d: %s %s", shared.ErrRequestFailed, status, method, endpoint)
		}

		return nil
	}
}

func (s *SpotifyService) doRequestOnce(ctx context.Context, method, endpoint string, body any, result any) (int, time.Duration, error) {
	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", shared.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, retryAfterWait(resp.Header.Get("Retry-After")), nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, 0, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, 0, nil
}

// retryAfterWait converts a Retry-After header value (seconds) into a wait
// duration, never shorter than rateLimitFloor.
func retryAfterWait(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 1 {
		return rateLimitFloor
	}
	return time.Duration(secs) * time.Second
}

// PlaylistTracks retrieves every track of a playlist, transparently following
// pagination. A failure on any page fails the whole call; callers never see a
// truncated list.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, pageLimit, offset)

		var page SpotifyPaginatedPlaylistTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
		}

		for _, item := range page.Items {
			track, ok := convertPlaylistTrack(item)
			if !ok {
				continue
			}
			tracks = append(tracks, track)
		}

		if page.Next == nil {
			break
		}
		offset += pageLimit
	}

	return tracks, nil
}

// convertPlaylistTrack maps a playlist item to a [models.Track].
// Items without a track object or a track id are dropped (fails closed):
// local files and tracks removed from the catalog surface this way.
func convertPlaylistTrack(item SpotifyPlaylistTrack) (models.Track, bool) {
	if item.Track == nil || item.Track.ID == "" || item.Track.IsLocal {
		return models.Track{}, false
	}
	if item.Track.Type != "" && item.Track.Type != "track" {
		return models.Track{}, false
	}

	track := models.Track{
		ID:   item.Track.ID,
		Name: item.Track.Name,
	}

	if addedAt, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
		track.AddedAt = addedAt
	}

	if sa := item.Track.Album; sa != nil && sa.ID != "" {
		album := &models.Album{
			ID:          sa.ID,
			Name:        sa.Name,
			Kind:        models.ParseAlbumKind(sa.AlbumType),
			TotalTracks: sa.TotalTracks,
			ReleaseYear: models.YearFromReleaseDate(sa.ReleaseDate),
			URL:         sa.ExternalURLs.Spotify,
		}
		for _, artist := range sa.Artists {
			album.Artists = append(album.Artists, artist.Name)
		}
		if len(sa.Images) > 0 {
			album.ImageURL = sa.Images[0].URL
		}
		track.Album = album
	}

	return track, true
}

// AlbumTracks retrieves the full tracklist of an album, following pagination.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", albumID, pageLimit, offset)

		var page SpotifyPaginatedAlbumTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("album %s: %w", albumID, err)
		}

		for _, item := range page.Items {
			if item.ID == "" {
				continue
			}
			tracks = append(tracks, models.Track{ID: item.ID, Name: item.Name})
		}

		if page.Next == nil {
			break
		}
		offset += pageLimit
	}

	return tracks, nil
}

type trackURIRef struct {
	URI string `json:"uri"`
}

type removeTracksBody struct {
	Tracks []trackURIRef `json:"tracks"`
}

type addTracksBody struct {
	URIs []string `json:"uris"`
}

// AddTracks appends tracks to a playlist in chunks of mutationChunkSize.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for _, chunk := range chunkIDs(trackIDs, mutationChunkSize) {
		body := addTracksBody{}
		for _, id := range chunk {
			body.URIs = append(body.URIs, "spotify:track:"+id)
		}

		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("add to playlist %s: %w", playlistID, err)
		}
	}

	return nil
}

// RemoveTracks removes every occurrence of the given tracks from a playlist
// in chunks of mutationChunkSize. Spotify removes all copies of a URI, which
// is exactly the semantics the tidy plan relies on.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for _, chunk := range chunkIDs(trackIDs, mutationChunkSize) {
		body := removeTracksBody{}
		for _, id := range chunk {
			body.Tracks = append(body.Tracks, trackURIRef{URI: "spotify:track:" + id})
		}

		if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
			return fmt.Errorf("remove from playlist %s: %w", playlistID, err)
		}
	}

	return nil
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
