package tidy

import (
	"context"
	"fmt"

	"github.com/mattdurrant/favourite-albums/internal/services"
)

// Apply executes a plan against the source, tier by tier. Within a tier,
// removals run before additions so a duplicated winner ends up with exactly
// one copy. The service chunks each batch to the API limit.
//
// A failure partway through leaves earlier tiers already mutated; that is
// accepted and surfaced to the caller rather than retried across tiers.
// Re-running tidy afterwards computes the remaining plan from live state.
func Apply(ctx context.Context, svc services.SourceService, playlists map[int]string, plan *Plan) error {
	for _, star := range plan.Stars() {
		playlistID, ok := playlists[star]
		if !ok {
			return fmt.Errorf("no playlist configured for %d stars", star)
		}

		edit := plan.Tiers[star]

		if len(edit.Remove) > 0 {
			if err := svc.RemoveTracks(ctx, playlistID, edit.Remove); err != nil {
				return fmt.Errorf("tier %d: %w", star, err)
			}
		}

		if len(edit.Add) > 0 {
			if err := svc.AddTracks(ctx, playlistID, edit.Add); err != nil {
				return fmt.Errorf("tier %d: %w", star, err)
			}
		}
	}

	return nil
}
