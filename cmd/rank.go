package main

import (
	"context"
	"fmt"

	"github.com/mattdurrant/favourite-albums/internal/formatter"
	"github.com/mattdurrant/favourite-albums/internal/ranking"
	"github.com/mattdurrant/favourite-albums/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Rank runs a full ranking pass: scan the rating playlists, rank albums,
// enrich tracklists, and write the static pages.
func (r *Runner) Rank(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	svc, err := r.ensureAuthenticated()
	if err != nil {
		return err
	}

	r.logger.Info("starting ranking pass", "source", svc.Name())

	opts := tasks.RunOpts{
		StarPlaylists:      r.config.StarPlaylists(),
		ExclusionPlaylists: r.config.ExclusionPlaylists(),
		Weights:            ranking.ParseWeightOverrides(r.config.Ranking.Weights),
		TopK:               r.config.Ranking.TopK,
		FetchWorkers:       r.config.Ranking.FetchWorkers,
		CacheTTLDays:       r.config.Cache.TTLDays,
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.consumeProgress("rank", progress)

	result, err := r.engine.Run(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("ranking pass failed: %w", err)
	}

	r.logger.Info("ranking pass complete",
		"albums", len(result.Ranked), "top", len(result.Top), "excluded", result.Excluded)

	if cmd.Bool("json") {
		return r.writeJSON(result.Top, cmd.Bool("pretty"))
	}

	outputDir := cmd.String("out")
	if outputDir == "" {
		outputDir = r.config.Output.Dir
	}

	renderer, err := formatter.NewRenderer()
	if err != nil {
		return err
	}
	if err := renderer.WriteTopPage(outputDir, result.Top, result.Tracklists, result.BestStars); err != nil {
		return err
	}
	if err := renderer.WriteYearsPage(outputDir, result.Years, result.ByYear, result.Tracklists, result.BestStars); err != nil {
		return err
	}

	r.writePlain("✓ Pages written to %s\n", outputDir)

	sample := int(cmd.Int("sample"))
	if sample == 0 {
		sample = r.config.Ranking.SampleSize
	}
	if sample > 0 {
		r.writePlain("%s", formatter.FormatRankSample(result.Top, sample))
	}

	return nil
}

// rankCommand handles the full ranking pass
func rankCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "Rank rated albums and write the static pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for the generated pages",
			},
			&cli.IntFlag{
				Name:  "sample",
				Usage: "Print the first N ranked albums to the terminal",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the ranked list as JSON instead of pages",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Rank,
	}
}
