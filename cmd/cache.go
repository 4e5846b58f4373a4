package main

import (
	"context"
	"fmt"

	"github.com/mattdurrant/favourite-albums/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats reports how many album tracklists the local cache holds.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: cache not initialized, run 'favourites setup'", shared.ErrCacheUnavailable)
	}

	count, err := r.cache.Count()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	r.writePlain("Cache: %s\n", r.config.Cache.Path)
	r.writePlain("Cached tracklists: %d\n", count)
	r.writePlain("TTL: %d days\n", r.config.Cache.TTLDays)
	return nil
}

// CacheClear drops every cached tracklist.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: cache not initialized, run 'favourites setup'", shared.ErrCacheUnavailable)
	}

	if err := r.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("cache cleared", "path", r.config.Cache.Path)
	return r.writePlain("✓ Cache cleared\n")
}

// cacheCommand handles the local tracklist cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local tracklist cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache location and entry count",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Drop all cached tracklists",
				Action: r.CacheClear,
			},
		},
	}
}
