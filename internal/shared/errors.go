package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Source API errors
	ErrRequestFailed = fmt.Errorf("source API request failed")

	// Cache errors: always recovered by treating the cache as empty
	ErrCacheUnavailable = fmt.Errorf("tracklist cache unavailable")
)
