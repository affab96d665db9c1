package services

import (
	"context"
	"iter"

	"github.com/desertthunder/reshuffle/internal/tracks"
)

// MaxBatchSize is the largest number of items a single mutation call accepts.
const MaxBatchSize = 100

// Catalog defines the operations the reshuffle pipeline needs from a music catalog.
type Catalog interface {
	// Collection resolves a collection by id.
	Collection(ctx context.Context, id string) (*Collection, error)

	// CollectionItems streams every item of a collection, page by page.
	// An empty market lets the service pick one.
	CollectionItems(ctx context.Context, id, market string) iter.Seq2[Item, error]

	// SavedTracks streams the current user's saved tracks.
	SavedTracks(ctx context.Context, market string) iter.Seq2[Item, error]

	// SearchCollections runs a bounded playlist search for name.
	SearchCollections(ctx context.Context, name string, limit, offset int) (SearchResult, error)

	// CurrentUser returns the authenticated user.
	CurrentUser(ctx context.Context) (*User, error)

	// CreateCollection creates a collection owned by opts.OwnerID.
	CreateCollection(ctx context.Context, opts CreateCollectionOpts) (*Collection, error)

	// RemoveItems removes every occurrence of ids from a collection. At most [MaxBatchSize] ids.
	RemoveItems(ctx context.Context, id string, ids []tracks.TrackID) error

	// AppendItems appends ids to the end of a collection. At most [MaxBatchSize] ids.
	AppendItems(ctx context.Context, id string, ids []tracks.TrackID) error
}

// User is the authenticated catalog user.
type User struct {
	ID          string
	DisplayName string
}

// Collection is a remote track collection (a playlist).
type Collection struct {
	ID            string
	Name          string
	OwnerID       string
	Public        bool
	Collaborative bool
	Description   string
	ExternalURL   string // empty when the service reports none
}

// Item is one entry of a collection or of the saved-tracks list.
//
// Track is nil when the entry has no underlying track (removed, unavailable or a podcast episode).
type Item struct {
	Track   *TrackRef
	IsLocal bool
}

// TrackRef identifies the track behind an [Item].
type TrackRef struct {
	ID   tracks.TrackID // empty for local files
	Name string
}

// SearchResult is the tagged result of a search: [PlaylistResults] or [OtherResults].
type SearchResult interface {
	isSearchResult()
}

// PlaylistResults holds the playlist candidates of a search in result order.
type PlaylistResults struct {
	Collections []Collection
	Total       int
}

// OtherResults is any search result that carries no playlists.
type OtherResults struct {
	Kind string
}

func (PlaylistResults) isSearchResult() {}
func (OtherResults) isSearchResult()    {}

// CreateCollectionOpts describes a collection to create.
type CreateCollectionOpts struct {
	OwnerID       string
	Name          string
	Public        bool
	Collaborative bool
	Description   string
}

// Drain collects every item of a stream, stopping at the first error.
func Drain(items iter.Seq2[Item, error]) ([]Item, error) {
	var out []Item
	for item, err := range items {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
