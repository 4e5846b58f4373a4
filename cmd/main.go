package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattdurrant/favourite-albums/internal/repositories"
	"github.com/mattdurrant/favourite-albums/internal/services"
	"github.com/mattdurrant/favourite-albums/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadStartupConfig resolves the process configuration: defaults when no
// config file exists, a fatal error when one exists but cannot be parsed.
func loadStartupConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return config, nil
}

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("FAVOURITES_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	config, err := loadStartupConfig("config.toml")
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	var spotifyService services.SourceService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			spotifyService = svc
		} else {
			logger.Warn("failed to initialize Spotify service", "error", err)
		}
	}

	var cache *repositories.TracklistRepository
	if db, err := shared.NewDatabase(config.Cache.Path); err == nil {
		if err := shared.RunMigrations(db); err == nil {
			cache = repositories.NewTracklistRepository(db)
		} else {
			logger.Warn("cache unavailable", "error", err)
			db.Close()
		}
	} else {
		logger.Warn("cache unavailable", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Cache:   cache,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "favourites",
		Usage:    "Rank star-rated Spotify tracks into favourite album lists",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
