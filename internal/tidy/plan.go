package tidy

import (
	"sort"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/models"
)

// tierSighting records how one track shows up inside one star tier.
type tierSighting struct {
	count  int
	latest time.Time
}

// Survey accumulates per-track occurrence state across all five tiers.
// Tiers can be added in any order; the result does not depend on it.
type Survey struct {
	tracks map[string]map[int]*tierSighting
}

// NewSurvey creates an empty Survey for one reconciliation pass.
func NewSurvey() *Survey {
	return &Survey{tracks: make(map[string]map[int]*tierSighting)}
}

// AddTier records every occurrence in one tier: the occurrence count and the
// most recent added-at timestamp observed for each track.
func (s *Survey) AddTier(star int, tracks []models.Track) {
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}

		tiers, ok := s.tracks[track.ID]
		if !ok {
			tiers = make(map[int]*tierSighting)
			s.tracks[track.ID] = tiers
		}

		sighting, ok := tiers[star]
		if !ok {
			sighting = &tierSighting{}
			tiers[star] = sighting
		}

		sighting.count++
		if track.AddedAt.After(sighting.latest) {
			sighting.latest = track.AddedAt
		}
	}
}

// winnerTier picks the authoritative tier for a track: the tier holding the
// occurrence with the latest added-at, ties broken toward the higher star.
func winnerTier(tiers map[int]*tierSighting) int {
	winner := 0
	var winnerTime time.Time

	for star, sighting := range tiers {
		switch {
		case winner == 0,
			sighting.latest.After(winnerTime),
			sighting.latest.Equal(winnerTime) && star > winner:
			winner = star
			winnerTime = sighting.latest
		}
	}

	return winner
}

// TierEdit lists the track ids to remove from and add to one tier.
//
// A track id appears in both lists for the same tier only when the winning
// tier held duplicate copies: the removal clears all copies, the add
// re-establishes exactly one.
type TierEdit struct {
	Remove []string
	Add    []string
}

// Plan is the computed, not-yet-applied set of per-tier edits restoring the
// single-copy invariant. Computed entirely in memory before any mutation.
type Plan struct {
	Tiers map[int]*TierEdit
}

// BuildPlan resolves every surveyed track to its winning tier and derives the
// minimal edit plan. Track ids within each list are sorted so identical
// surveys always produce identical plans.
func (s *Survey) BuildPlan() *Plan {
	plan := &Plan{Tiers: make(map[int]*TierEdit)}

	for trackID, tiers := range s.tracks {
		winner := winnerTier(tiers)
		if winner == 0 {
			continue
		}

		for star, sighting := range tiers {
			if star != winner {
				plan.edit(star).Remove = append(plan.edit(star).Remove, trackID)
				continue
			}
			if sighting.count > 1 {
				edit := plan.edit(star)
				edit.Remove = append(edit.Remove, trackID)
				edit.Add = append(edit.Add, trackID)
			}
		}
	}

	for star, edit := range plan.Tiers {
		sort.Strings(edit.Remove)
		sort.Strings(edit.Add)
		if len(edit.Remove) == 0 && len(edit.Add) == 0 {
			delete(plan.Tiers, star)
		}
	}

	return plan
}

func (p *Plan) edit(star int) *TierEdit {
	edit, ok := p.Tiers[star]
	if !ok {
		edit = &TierEdit{}
		p.Tiers[star] = edit
	}
	return edit
}

// IsEmpty reports whether the plan contains no edits at all.
func (p *Plan) IsEmpty() bool {
	for _, edit := range p.Tiers {
		if len(edit.Remove) > 0 || len(edit.Add) > 0 {
			return false
		}
	}
	return true
}

// Totals returns the overall number of removals and additions.
func (p *Plan) Totals() (removes, adds int) {
	for _, edit := range p.Tiers {
		removes += len(edit.Remove)
		adds += len(edit.Add)
	}
	return removes, adds
}

// Stars returns the tiers with edits, highest star first.
func (p *Plan) Stars() []int {
	stars := make([]int, 0, len(p.Tiers))
	for star := range p.Tiers {
		stars = append(stars, star)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))
	return stars
}
