// package tracks validates, deduplicates and shuffles Spotify track URIs
package tracks

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Namespace is the first segment of every Spotify URI.
	Namespace = "spotify"
	// Kind is the second segment of a track URI.
	Kind = "track"

	uriPrefix = Namespace + ":" + Kind + ":"
)

// ErrInvalidTrackURI is returned when a URI cannot be parsed into a [TrackID].
var ErrInvalidTrackURI = errors.New("invalid track URI")

// TrackID is the local (base62) part of a track URI in its strict typed form.
type TrackID string

// URI renders the canonical "spotify:track:<id>" form.
func (id TrackID) URI() string {
	return uriPrefix + string(id)
}

// URI builds a track URI from a local id without validating it.
func URI(localID string) string {
	return uriPrefix + localID
}

// IsValidTrackURI reports whether uri has exactly three colon-delimited segments,
// "spotify" and "track" as the first two, and a third one that is non-empty after trimming.
//
// Matching is case-sensitive. Whitespace inside the local id is accepted as long as the trimmed id is non-empty.
func IsValidTrackURI(uri string) bool {
	parts := strings.Split(uri, ":")
	return len(parts) == 3 &&
		parts[0] == Namespace &&
		parts[1] == Kind &&
		strings.TrimSpace(parts[2]) != ""
}

// ParseTrackURI converts uri to a [TrackID].
//
// Stricter than [IsValidTrackURI]: the local id must consist of ASCII letters and digits only.
func ParseTrackURI(uri string) (TrackID, error) {
	id, ok := strings.CutPrefix(uri, uriPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a %s URI", ErrInvalidTrackURI, uri, Kind)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %q has an empty id", ErrInvalidTrackURI, uri)
	}
	for _, r := range id {
		if !isBase62(r) {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidTrackURI, uri, r)
		}
	}
	return TrackID(id), nil
}

func isBase62(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ParseTrackURIs parses every uri, stopping at the first failure.
func ParseTrackURIs(uris []string) ([]TrackID, error) {
	ids := make([]TrackID, 0, len(uris))
	for _, uri := range uris {
		id, err := ParseTrackURI(uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FilterValid returns the URIs accepted by [IsValidTrackURI], in their original order.
func FilterValid(uris []string) []string {
	valid := make([]string, 0, len(uris))
	for _, uri := range uris {
		if IsValidTrackURI(uri) {
			valid = append(valid, uri)
		}
	}
	return valid
}

// ValidateAndDeduplicate drops invalid URIs and then duplicates. Output order is unspecified.
func ValidateAndDeduplicate(uris []string) []string {
	return DedupeUnordered(FilterValid(uris))
}
