// Package services implements the boundary with the rating source API.
//
// [SourceService] is the narrow contract the rest of the application depends
// on: paginated playlist reads, album tracklist reads, and idempotent batch
// mutations. [SpotifyService] is the one production implementation; tests
// substitute hand-written mocks.
//
// Error behaviour at this boundary:
//   - 429 responses are retried exactly once after the server-specified
//     Retry-After interval (minimum one second); a second 429 escalates to
//     [shared.ErrRequestFailed].
//   - Any other non-2xx response fails the call immediately with
//     [shared.ErrRequestFailed].
//   - Pagination failures fail the whole read; callers never receive a
//     silently truncated tracklist.
package services
