// Package tasks orchestrates full passes over the rating playlists.
//
// The core abstraction is [Engine], which runs the ranking pass (exclusions,
// sequential tier scans, ranking, bounded-concurrency detail enrichment) and
// the tidy survey. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer.
//
// A pass is all-or-nothing: any source failure aborts the run and nothing is
// written. The one concession is the tracklist cache, which is best-effort
// in both directions.
package tasks
