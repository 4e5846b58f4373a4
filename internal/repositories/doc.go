// Package repositories contains the SQLite-backed album tracklist cache used
// by detail enrichment. Cache misses and unreadable databases are treated as
// an empty cache; staleness is decided by a caller-supplied TTL in days.
package repositories
