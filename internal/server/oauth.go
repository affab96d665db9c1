package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// DefaultCallbackPath is served when the redirect URI has no path.
const DefaultCallbackPath = "/callback"

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult is what the callback produced: a token or the reason there is none.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the redirect URI of the authorization code flow.
//
// Only the first request is processed; later ones get 409 Conflict.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	results   chan OAuthResult
	claimed   atomic.Bool
	once      sync.Once
}

// NewOAuthHandler serves the path of redirectURI and expects state back from the provider.
func NewOAuthHandler(exchanger Exchanger, state, redirectURI string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      CallbackPath(redirectURI),
		results:   make(chan OAuthResult, 1),
	}
}

// CallbackPath returns the path of redirectURI, or [DefaultCallbackPath] when it has none.
func CallbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || strings.Trim(u.Path, "/") == "" {
		return DefaultCallbackPath
	}
	return u.Path
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "Authorization already handled", http.StatusConflict)
		return
	}

	token, status, err := h.handle(r)
	h.Send(OAuthResult{Token: token, err: err})
	if err != nil {
		http.Error(w, http.StatusText(status)+": "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, successPage)
}

// handle checks the callback parameters and trades the code for a token.
func (h *OAuthHandler) handle(r *http.Request) (*oauth2.Token, int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return nil, http.StatusBadRequest, errors.New("state mismatch")
	}

	if reason := q.Get("error"); reason != "" {
		if desc := q.Get("error_description"); desc != "" {
			reason += ": " + desc
		}
		return nil, http.StatusBadRequest, fmt.Errorf("provider returned %s", reason)
	}

	code := q.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, errors.New("missing authorization code")
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

// Send publishes the result once; later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>reshuffle: authorized</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authorization Successful</h1>
        <p>reshuffle can now access your library. Return to the terminal.</p>
    </div>
</body>
</html>
`
