package testing

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

// FakeCatalog is an in-memory [services.Catalog].
//
// Every call is appended to Calls as "<Method> <args>" so tests can assert on ordering.
type FakeCatalog struct {
	mu sync.Mutex

	User     services.User
	PageSize int
	Calls    []string
	Markets  []string

	// SearchOther makes SearchCollections return [services.OtherResults].
	SearchOther bool

	collections map[string]*services.Collection
	items       map[string][]services.Item
	order       []string
	saved       []services.Item
	failures    map[string]failure
	counts      map[string]int
	created     int
}

type failure struct {
	after int
	err   error
}

// NewFakeCatalog returns an empty catalog whose current user is userID.
func NewFakeCatalog(userID string) *FakeCatalog {
	return &FakeCatalog{
		User:        services.User{ID: userID, DisplayName: userID},
		PageSize:    50,
		collections: map[string]*services.Collection{},
		items:       map[string][]services.Item{},
		failures:    map[string]failure{},
		counts:      map[string]int{},
	}
}

// TrackItems builds items for the given local ids.
func TrackItems(ids ...string) []services.Item {
	items := make([]services.Item, len(ids))
	for i, id := range ids {
		items[i] = services.Item{Track: &services.TrackRef{ID: tracks.TrackID(id), Name: "Track " + id}}
	}
	return items
}

// AddCollection registers c with the given items. Collections are searched in registration order.
func (f *FakeCatalog) AddCollection(c services.Collection, items ...services.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[c.ID] = &c
	f.items[c.ID] = slices.Clone(items)
	f.order = append(f.order, c.ID)
}

// AddSaved appends items to the saved-tracks list.
func (f *FakeCatalog) AddSaved(items ...services.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, items...)
}

// FailAfter makes method fail with err once it has succeeded n times.
func (f *FakeCatalog) FailAfter(method string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = failure{after: n, err: err}
}

// TrackIDs returns the track ids currently in a collection.
func (f *FakeCatalog) TrackIDs(id string) []tracks.TrackID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []tracks.TrackID
	for _, item := range f.items[id] {
		if item.Track != nil {
			ids = append(ids, item.Track.ID)
		}
	}
	return ids
}

// CallsTo returns the logged calls of one method.
func (f *FakeCatalog) CallsTo(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, method+" ") || c == method {
			out = append(out, c)
		}
	}
	return out
}

// record logs a call and returns the configured failure, if any. Callers hold f.mu.
func (f *FakeCatalog) record(method string, args ...any) error {
	call := method
	if len(args) > 0 {
		call += " " + strings.TrimSpace(fmt.Sprintln(args...))
	}
	f.Calls = append(f.Calls, call)

	fail, ok := f.failures[method]
	if !ok {
		return nil
	}
	f.counts[method]++
	if f.counts[method] > fail.after {
		return fail.err
	}
	return nil
}

func (f *FakeCatalog) Collection(ctx context.Context, id string) (*services.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Collection", id); err != nil {
		return nil, err
	}
	c, ok := f.collections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, shared.ErrPlaylistNotFound, id)
	}
	out := *c
	return &out, nil
}

func (f *FakeCatalog) CollectionItems(ctx context.Context, id, market string) iter.Seq2[services.Item, error] {
	return f.stream("CollectionItems", market, func() ([]services.Item, bool) {
		items, ok := f.items[id]
		return items, ok
	}, id)
}

func (f *FakeCatalog) SavedTracks(ctx context.Context, market string) iter.Seq2[services.Item, error] {
	return f.stream("SavedTracks", market, func() ([]services.Item, bool) {
		return f.saved, true
	})
}

func (f *FakeCatalog) stream(method, market string, source func() ([]services.Item, bool), args ...any) iter.Seq2[services.Item, error] {
	return func(yield func(services.Item, error) bool) {
		for offset := 0; ; {
			f.mu.Lock()
			f.Markets = append(f.Markets, market)
			err := f.record(method, append(args, offset)...)
			all, ok := source()
			if err == nil && !ok {
				err = fmt.Errorf("%w: %w: %v", shared.ErrAPIRequest, shared.ErrPlaylistNotFound, args)
			}
			page := slices.Clone(all[min(offset, len(all)):min(offset+f.PageSize, len(all))])
			more := offset+f.PageSize < len(all)
			f.mu.Unlock()

			if err != nil {
				yield(services.Item{}, err)
				return
			}
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
			if !more {
				return
			}
			offset += f.PageSize
		}
	}
}

// SearchCollections matches names containing name, case-insensitively, in registration order.
func (f *FakeCatalog) SearchCollections(ctx context.Context, name string, limit, offset int) (services.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SearchCollections", name, limit, offset); err != nil {
		return nil, err
	}
	if f.SearchOther {
		return services.OtherResults{Kind: "track"}, nil
	}

	var matches []services.Collection
	for _, id := range f.order {
		c := f.collections[id]
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			matches = append(matches, *c)
		}
	}
	window := matches[min(offset, len(matches)):min(offset+limit, len(matches))]
	return services.PlaylistResults{Collections: window, Total: len(matches)}, nil
}

func (f *FakeCatalog) CurrentUser(ctx context.Context) (*services.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CurrentUser"); err != nil {
		return nil, err
	}
	u := f.User
	return &u, nil
}

func (f *FakeCatalog) CreateCollection(ctx context.Context, opts services.CreateCollectionOpts) (*services.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCollection", opts.OwnerID, opts.Name); err != nil {
		return nil, err
	}

	f.created++
	id := fmt.Sprintf("created-%d", f.created)
	c := &services.Collection{
		ID:            id,
		Name:          opts.Name,
		OwnerID:       opts.OwnerID,
		Public:        opts.Public,
		Collaborative: opts.Collaborative,
		Description:   opts.Description,
		ExternalURL:   "https://open.spotify.com/playlist/" + id,
	}
	f.collections[id] = c
	f.items[id] = nil
	f.order = append(f.order, id)

	out := *c
	return &out, nil
}

func (f *FakeCatalog) RemoveItems(ctx context.Context, id string, ids []tracks.TrackID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(ids) > services.MaxBatchSize {
		return shared.ErrBatchTooLarge
	}
	if err := f.record("RemoveItems", id, len(ids)); err != nil {
		return err
	}

	f.items[id] = slices.DeleteFunc(f.items[id], func(item services.Item) bool {
		return item.Track != nil && slices.Contains(ids, item.Track.ID)
	})
	return nil
}

func (f *FakeCatalog) AppendItems(ctx context.Context, id string, ids []tracks.TrackID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(ids) > services.MaxBatchSize {
		return shared.ErrBatchTooLarge
	}
	if err := f.record("AppendItems", id, len(ids)); err != nil {
		return err
	}

	for _, tid := range ids {
		f.items[id] = append(f.items[id], services.Item{Track: &services.TrackRef{ID: tid}})
	}
	return nil
}
