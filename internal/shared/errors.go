package shared

import "fmt"

// Sentinels are wrapped with %w and matched with errors.Is at the command boundary.
var (
	// Raised before any remote call.
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrNoSources          = fmt.Errorf("no source playlists selected")
	ErrEmptyTarget        = fmt.Errorf("target playlist name cannot be empty")

	ErrAuthFailed       = fmt.Errorf("authorization failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired or revoked")
	ErrNoTokenCache     = fmt.Errorf("no cached token")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Catalog failures. All of them end the run.
	ErrAPIRequest         = fmt.Errorf("catalog request failed")
	ErrServiceUnavailable = fmt.Errorf("catalog unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrBatchTooLarge      = fmt.Errorf("batch exceeds the per-request limit")

	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
