// Package tidy implements the reconciliation engine that restores the
// single-copy invariant across the five star-rating playlists: every rated
// track lives in exactly one tier, the tier of its most recent rating.
//
// A [Survey] scans each tier (in any order) recording occurrence counts and
// latest added-at timestamps per track. [Survey.BuildPlan] resolves each
// track to a winning tier and emits a [Plan] of per-tier removals and
// additions, computed entirely in memory. [Apply] executes the plan; applying
// a plan and re-surveying the result yields an empty plan.
package tidy
