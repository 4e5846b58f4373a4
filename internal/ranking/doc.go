// Package ranking implements the aggregation core: folding rated-track
// playlists into per-album statistics and ordering them into ranked views.
//
// A full pass owns one [Aggregator]. The caller feeds tiers strictly highest
// star first via AddTier; a global seen-set dedupes tracks across tiers, so
// a track rated in several tiers is counted once, at its highest star. Tracks
// on the exclusion lists, on singles and on compilations never count.
//
// Scores are never stored. [AlbumStats.PercentFor] recomputes
// weightedSum / denominator × 100 on demand, where the denominator is the
// album's eligible-track count ([AlbumStats.Denominator]). [Rank] snapshots
// the scores and applies the one comparator both ranked views share.
package ranking
