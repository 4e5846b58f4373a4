// Package models defines domain entities shared by the ranking and tidy tools.
//
// The types here are decoded at the services boundary from the source API's
// responses and carry only the fields the aggregation and reconciliation
// logic reads:
//   - [Track] : a playlist member with its added-at timestamp
//   - [Album] : album metadata including kind, reported track total and release year
//
// Decoding fails closed: records missing a required field (track id, album id)
// are skipped upstream, never fabricated.
package models
