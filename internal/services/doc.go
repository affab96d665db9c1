// Package services defines the [Catalog] interface for a remote music catalog and implements it for Spotify.
//
// # Catalog Interface
//
// The reshuffle pipeline only needs a handful of operations: resolving and listing collections,
// listing saved tracks, a bounded playlist search, the current user, and two batched mutations.
// Listings are returned as iter.Seq2[Item, error] streams. A stream is finite and restartable:
// each range fetches again from the first page, and iteration stops after yielding the first error.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2. Authentication uses an [oauth2.Config]
// pointed at the Spotify accounts endpoints; the token source refreshes expired tokens
// transparently. Automatic retries of the client library are disabled.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401 response or failed refresh, reauthorization needed
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrBatchTooLarge] : more than [MaxBatchSize] ids passed to a mutation
//   - [shared.ErrMissingCredentials] : client id or secret missing
package services
