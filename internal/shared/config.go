package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file,
// with credential overrides from the environment (or a .env file).
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Ranking     RankingConfig     `toml:"ranking"`
	Tidy        TidyConfig        `toml:"tidy"`
	Cache       CacheConfig       `toml:"cache"`
	Output      OutputConfig      `toml:"output"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify API credential triple and the token cache location.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// PlaylistsConfig binds each star tier to a playlist and names the exclusion lists.
//
// Stars is keyed by the star value as a string ("1".."5"); all five entries are
// required. Filler is the playlist whose members are excluded from ranking;
// ExtraFiller is an optional second exclusion list.
type PlaylistsConfig struct {
	Stars       map[string]string `toml:"stars"`
	Filler      string            `toml:"filler"`
	ExtraFiller string            `toml:"extra_filler"`
}

// RankingConfig contains optional ranking knobs.
type RankingConfig struct {
	TopK         int                `toml:"top_k"`         // size of the global ranked list (default 100)
	SampleSize   int                `toml:"sample_size"`   // rows printed to the terminal after a run
	Weights      map[string]float64 `toml:"weights"`       // per-star weight overrides, keyed "1".."5"
	FetchWorkers int                `toml:"fetch_workers"` // detail enrichment concurrency (default 4)
}

// TidyConfig contains reconciliation settings.
type TidyConfig struct {
	DryRun bool `toml:"dry_run"`
}

// CacheConfig contains tracklist cache settings.
type CacheConfig struct {
	Path    string `toml:"path"`
	TTLDays int    `toml:"ttl_days"`
}

// OutputConfig contains static page output settings.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment overrides for credentials. A .env file in
// the working directory is honoured when present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := preDecodeConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	config := preDecodeConfig()
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// preDecodeConfig seeds the values that cannot be defaulted after decoding.
// Playlist mutations are opt-in: a config that never mentions [tidy] must
// stay a dry run, so only an explicit dry_run = false flips the flag.
func preDecodeConfig() Config {
	return Config{Tidy: TidyConfig{DryRun: true}}
}

// applyEnv overrides credentials from the environment. godotenv populates the
// process environment from an optional .env file; a missing file is not an error.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := os.Getenv("FAVOURITES_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

func (c *Config) applyDefaults() {
	if c.Credentials.Spotify.RedirectURI == "" {
		c.Credentials.Spotify.RedirectURI = "http://localhost:8080/callback"
	}
	if c.Ranking.TopK <= 0 {
		c.Ranking.TopK = 100
	}
	if c.Ranking.FetchWorkers <= 0 {
		c.Ranking.FetchWorkers = 4
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "./favourites.db"
	}
	if c.Cache.TTLDays <= 0 {
		c.Cache.TTLDays = 30
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./public"
	}
}

// Validate checks the required configuration surface. The returned error names
// the first missing item; callers treat it as fatal before any network call.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: credentials.spotify.client_id", ErrMissingConfig)
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.spotify.client_secret", ErrMissingConfig)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.redirect_uri", ErrMissingConfig)
	}
	for star := 1; star <= 5; star++ {
		key := strconv.Itoa(star)
		if c.Playlists.Stars[key] == "" {
			return fmt.Errorf("%w: playlists.stars.%s", ErrMissingConfig, key)
		}
	}
	if c.Playlists.Filler == "" {
		return fmt.Errorf("%w: playlists.filler", ErrMissingConfig)
	}
	return nil
}

// StarPlaylists returns the tier → playlist binding as an int-keyed map.
// Call Validate first; entries with malformed keys are ignored here.
func (c *Config) StarPlaylists() map[int]string {
	out := make(map[int]string, 5)
	for key, id := range c.Playlists.Stars {
		star, err := strconv.Atoi(key)
		if err != nil || star < 1 || star > 5 {
			continue
		}
		out[star] = id
	}
	return out
}

// ExclusionPlaylists returns the configured exclusion list identifiers, the
// optional second list omitted when unset.
func (c *Config) ExclusionPlaylists() []string {
	out := []string{c.Playlists.Filler}
	if c.Playlists.ExtraFiller != "" {
		out = append(out, c.Playlists.ExtraFiller)
	}
	return out
}
