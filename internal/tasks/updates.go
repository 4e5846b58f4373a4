package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchExclusions Phase = iota
	ScanTier
	RankAlbums
	EnrichAlbums
	ScanTidy
	BuildPlan
)

func (p Phase) String() string {
	switch p {
	case FetchExclusions:
		return "fetch_exclusions"
	case ScanTier:
		return "scan_tier"
	case RankAlbums:
		return "rank_albums"
	case EnrichAlbums:
		return "enrich_albums"
	case ScanTidy:
		return "scan_tidy"
	case BuildPlan:
		return "build_plan"
	default:
		return ""
	}
}

func fetchExclusionsUpdate(step, total int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchExclusions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching exclusion list %s...", step, total, playlistID),
	}
}

func scanTierUpdate(step, total, star, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanTier,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scanned %d-star playlist (%d tracks)", step, total, star, trackCount),
	}
}

func rankUpdate(albumCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankAlbums,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ranking %d albums...", albumCount),
	}
}

func enrichUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching album tracklists...", step, total),
	}
}

func scanTidyUpdate(step, total, star, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanTidy,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scanned %d-star playlist (%d tracks)", step, total, star, trackCount),
	}
}

func buildPlanUpdate(removes, adds int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan: %d removals, %d additions", removes, adds),
	}
}
