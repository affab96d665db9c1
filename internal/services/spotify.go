package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sync"

	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tracks"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
	defaultPageSize    = 50
	maxPageSize        = 50
)

// Scopes requested during authorization. Reading private sources needs the playlist-read scopes.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// SpotifyService implements [Catalog] for the Spotify Web API.
//
// It holds an OAuth2 token source that refreshes expired access tokens transparently.
type SpotifyService struct {
	config         *oauth2.Config
	source         oauth2.TokenSource
	onTokenRefresh func(*oauth2.Token)
	client         *spotify.Client
	httpClient     *http.Client
	baseURL        string
	pageSize       int
	credentials    map[string]string
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithHTTPClient sets the client used for API and token requests.
// Its transport becomes the base of the OAuth2 transport.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithBaseURL points the API client at another host. url must end with a slash.
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithPageSize sets the page size for paginated listings (1..50).
func WithPageSize(n int) SpotifyOption {
	return func(s *SpotifyService) {
		if n > 0 && n <= maxPageSize {
			s.pageSize = n
		}
	}
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Missing client_id or client_secret yields [shared.ErrMissingCredentials].
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}

	s := &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		pageSize:    defaultPageSize,
		credentials: credentials,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// RedirectURI returns the redirect URI the authorization flow must be served on.
func (s *SpotifyService) RedirectURI() string {
	return s.config.RedirectURL
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token. It does not authenticate the service.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.tokenContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects an "access_token", a "refresh_token" or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.AuthenticateToken(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: credentials["refresh_token"]})
	}

	if refreshToken := credentials["refresh_token"]; refreshToken != "" {
		return s.AuthenticateToken(ctx, &oauth2.Token{RefreshToken: refreshToken})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		return s.AuthenticateToken(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code in credentials", shared.ErrInvalidInput)
}

// AuthenticateToken builds the API client around token. An expired token is refreshed on first use.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrNotAuthenticated)
	}

	s.source = &refreshableTokenSource{
		source: s.config.TokenSource(s.tokenContext(ctx), token),
		callback: func(t *oauth2.Token) {
			if s.onTokenRefresh != nil {
				s.onTokenRefresh(t)
			}
		},
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: s.source, Base: s.httpClient.Transport},
		Timeout:   s.httpClient.Timeout,
	}

	opts := []spotify.ClientOption{spotify.WithRetry(false)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, opts...)
	return nil
}

// Token returns the current token, refreshing it first when it has expired.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	token, err := s.source.Token()
	if err != nil {
		return nil, wrapErr("refresh token", err)
	}
	return token, nil
}

// SetTokenRefreshCallback registers fn to receive every new token, including the first one used.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// refreshableTokenSource reports tokens that differ from the previously returned one.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}
	return token, nil
}

func (s *SpotifyService) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// wrapErr classifies a client error: 401 responses and failed refreshes become [shared.ErrTokenExpired],
// everything else [shared.ErrAPIRequest]. The cause stays reachable with [errors.Is].
func wrapErr(op string, err error) error {
	var apiErr spotify.Error
	var apiErrPtr *spotify.Error
	var retrieveErr *oauth2.RetrieveError

	switch {
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized,
		errors.As(err, &apiErrPtr) && apiErrPtr.Status == http.StatusUnauthorized,
		errors.As(err, &retrieveErr):
		return fmt.Errorf("%w: %s: %w", shared.ErrTokenExpired, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
	}
}

func (s *SpotifyService) ready() error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (s *SpotifyService) pageOpts(offset int, market string) []spotify.RequestOption {
	opts := []spotify.RequestOption{spotify.Limit(s.pageSize), spotify.Offset(offset)}
	if market != "" {
		opts = append(opts, spotify.Market(market))
	}
	return opts
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, wrapErr("get current user", err)
	}
	return &User{ID: u.ID, DisplayName: u.DisplayName}, nil
}

// Collection retrieves a playlist by ID.
func (s *SpotifyService) Collection(ctx context.Context, id string) (*Collection, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	p, err := s.client.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get playlist %s", id), err)
	}
	c := toCollection(p.SimplePlaylist)
	return &c, nil
}

// CollectionItems streams the items of a playlist. Each range starts again from the first page.
func (s *SpotifyService) CollectionItems(ctx context.Context, id, market string) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if err := s.ready(); err != nil {
			yield(Item{}, err)
			return
		}

		for offset := 0; ; {
			page, err := s.client.GetPlaylistItems(ctx, spotify.ID(id), s.pageOpts(offset, market)...)
			if err != nil {
				yield(Item{}, wrapErr(fmt.Sprintf("list items of playlist %s", id), err))
				return
			}

			for _, pi := range page.Items {
				if !yield(toPlaylistItem(pi), nil) {
					return
				}
			}

			offset += len(page.Items)
			if page.Next == "" || len(page.Items) == 0 {
				return
			}
		}
	}
}

// SavedTracks streams the user's saved tracks ("Liked Songs").
func (s *SpotifyService) SavedTracks(ctx context.Context, market string) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if err := s.ready(); err != nil {
			yield(Item{}, err)
			return
		}

		for offset := 0; ; {
			page, err := s.client.CurrentUsersTracks(ctx, s.pageOpts(offset, market)...)
			if err != nil {
				yield(Item{}, wrapErr("list saved tracks", err))
				return
			}

			for _, st := range page.Tracks {
				item := Item{Track: &TrackRef{ID: tracks.TrackID(st.ID), Name: st.Name}}
				if !yield(item, nil) {
					return
				}
			}

			offset += len(page.Tracks)
			if page.Next == "" || len(page.Tracks) == 0 {
				return
			}
		}
	}
}

// SearchCollections searches playlists by name within one bounded window.
func (s *SpotifyService) SearchCollections(ctx context.Context, name string, limit, offset int) (SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	res, err := s.client.Search(ctx, name, spotify.SearchTypePlaylist, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, wrapErr("search playlists", err)
	}

	if res.Playlists == nil {
		return OtherResults{Kind: "empty"}, nil
	}

	// The API returns null entries for playlists that are no longer available.
	results := PlaylistResults{Total: int(res.Playlists.Total)}
	for _, p := range res.Playlists.Playlists {
		if p.ID == "" {
			continue
		}
		results.Collections = append(results.Collections, toCollection(p))
	}
	return results, nil
}

// CreateCollection creates a playlist for opts.OwnerID.
func (s *SpotifyService) CreateCollection(ctx context.Context, opts CreateCollectionOpts) (*Collection, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	p, err := s.client.CreatePlaylistForUser(ctx, opts.OwnerID, opts.Name, opts.Description, opts.Public, opts.Collaborative)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("create playlist %q", opts.Name), err)
	}
	c := toCollection(p.SimplePlaylist)
	return &c, nil
}

// RemoveItems removes all occurrences of ids from a playlist.
func (s *SpotifyService) RemoveItems(ctx context.Context, id string, ids []tracks.TrackID) error {
	if err := s.checkBatch(ids); err != nil || len(ids) == 0 {
		return err
	}

	if _, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(id), toSpotifyIDs(ids)...); err != nil {
		return wrapErr(fmt.Sprintf("remove %d tracks from playlist %s", len(ids), id), err)
	}
	return nil
}

// AppendItems appends ids to the end of a playlist.
func (s *SpotifyService) AppendItems(ctx context.Context, id string, ids []tracks.TrackID) error {
	if err := s.checkBatch(ids); err != nil || len(ids) == 0 {
		return err
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(id), toSpotifyIDs(ids)...); err != nil {
		return wrapErr(fmt.Sprintf("add %d tracks to playlist %s", len(ids), id), err)
	}
	return nil
}

func (s *SpotifyService) checkBatch(ids []tracks.TrackID) error {
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("%w: %d ids, limit is %d", shared.ErrBatchTooLarge, len(ids), MaxBatchSize)
	}
	return s.ready()
}

func toSpotifyIDs(ids []tracks.TrackID) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func toCollection(p spotify.SimplePlaylist) Collection {
	return Collection{
		ID:            p.ID.String(),
		Name:          p.Name,
		OwnerID:       p.Owner.ID,
		Public:        p.IsPublic,
		Collaborative: p.Collaborative,
		Description:   p.Description,
		ExternalURL:   p.ExternalURLs["spotify"],
	}
}

func toPlaylistItem(pi spotify.PlaylistItem) Item {
	item := Item{IsLocal: pi.IsLocal}
	if t := pi.Track.Track; t != nil {
		item.Track = &TrackRef{ID: tracks.TrackID(t.ID), Name: t.Name}
	}
	return item
}
