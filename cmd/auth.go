package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/reshuffle/internal/server"
	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization flow and caches the token, replacing any cached one.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	cachePath := r.cachePath(cmd)

	svc, err := r.connect(ctx, cachePath, true)
	if err != nil {
		return err
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify authorization: %w", err)
	}

	r.writePlain("✓ Authorization successful\n")
	r.writePlain("✓ Signed in as %s\n", displayName(user))
	r.writePlain("✓ Token saved to %s\n\n", cachePath)
	r.writePlain("You can now use: reshuffle run -s <playlist-id> --include-liked\n")

	return nil
}

// cachePath returns --cache-path or the configured token cache.
func (r *Runner) cachePath(cmd *cli.Command) string {
	if cmd.IsSet("cache-path") {
		return shared.ExpandHome(cmd.String("cache-path"))
	}
	return r.config.Credentials.Spotify.TokenCachePath()
}

// connect builds an authenticated Spotify service.
//
// The cached token is used unless it is missing or force is set, in which case the browser flow runs
// and its token is cached. Refreshed tokens are written back to the cache.
func (r *Runner) connect(ctx context.Context, cachePath string, force bool) (*services.SpotifyService, error) {
	if err := r.config.ValidateCredentials(); err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map(), services.WithHTTPClient(r.httpClientFor()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	var token *oauth2.Token
	if !force {
		token, err = shared.LoadToken(cachePath)
		switch {
		case errors.Is(err, shared.ErrNoTokenCache):
			r.logger.Info("no cached token, starting authorization", "path", cachePath)
		case err != nil:
			return nil, err
		}
	}

	if token == nil {
		if token, err = r.authorize(ctx, svc); err != nil {
			return nil, err
		}
		if err := shared.SaveToken(cachePath, token); err != nil {
			return nil, err
		}
		r.logger.Info("token cached", "path", cachePath)
	}

	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := shared.SaveToken(cachePath, t); err != nil {
			r.logger.Warn("failed to cache refreshed token", "error", err)
			return
		}
		r.logger.Debug("token cache updated", "expiry", t.Expiry)
	})

	if err := svc.AuthenticateToken(ctx, token); err != nil {
		return nil, err
	}
	return svc, nil
}

// browserAuthorize serves the redirect URI locally, opens the authorization page and waits for the callback.
func (r *Runner) browserAuthorize(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(svc, state, svc.RedirectURI())
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)

	cs, err := server.StartCallbackServer(addr, handler, r.logger)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("waiting for the OAuth callback on %v", cs.Addr())

	authURL := svc.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")
	return cs.Wait(ctx, authTimeout)
}

func displayName(u *services.User) string {
	if u.DisplayName != "" {
		return fmt.Sprintf("%s (%s)", u.DisplayName, u.ID)
	}
	return u.ID
}
