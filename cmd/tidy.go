package main

import (
	"context"
	"fmt"

	"github.com/mattdurrant/favourite-albums/internal/formatter"
	"github.com/mattdurrant/favourite-albums/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Tidy surveys the rating playlists for cross-tier duplicates and builds a
// reconciliation plan. The default is a dry run that prints what would
// change; the plan executes with --apply (or tidy.dry_run = false in config).
func (r *Runner) Tidy(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	svc, err := r.ensureAuthenticated()
	if err != nil {
		return err
	}

	r.logger.Info("surveying rating playlists", "source", svc.Name())

	starPlaylists := r.config.StarPlaylists()

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.consumeProgress("tidy", progress)

	plan, err := r.engine.Tidy(ctx, progress, starPlaylists)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("tidy survey failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(plan, cmd.Bool("pretty"))
	}

	r.writePlain("%s", formatter.FormatPlan(plan, starPlaylists))

	if plan.IsEmpty() {
		return nil
	}

	apply := cmd.Bool("apply") || !r.config.Tidy.DryRun
	if !apply {
		r.writePlainln("Dry run: no playlists were modified. Re-run with --apply to execute the plan.")
		return nil
	}

	removes, adds := plan.Totals()
	r.logger.Info("applying tidy plan", "removals", removes, "additions", adds)

	if err := r.engine.ApplyPlan(ctx, starPlaylists, plan); err != nil {
		return fmt.Errorf("tidy apply failed: %w", err)
	}

	return r.writePlain("✓ Applied %d removals and %d additions\n", removes, adds)
}

// tidyCommand handles playlist reconciliation
func tidyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Remove cross-tier duplicates from the rating playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Execute the plan instead of printing it",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the plan as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Tidy,
	}
}
