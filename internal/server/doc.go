// Package server runs the short-lived local HTTP server that completes the OAuth2 authorization code flow.
//
// # Router
//
// [BasicRouter] implements [Router] on [http.ServeMux] method patterns. [Middleware] added first runs first;
// [LogRequests] logs every request without its query string.
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter (CSRF protection), hands the authorization code to an
// [Exchanger] and publishes a single [OAuthResult]. Further callbacks are rejected.
//
// [CallbackServer] binds the redirect address, serves the handler and shuts down once [CallbackServer.Wait]
// has a token, an error or a timeout.
package server
