package bandcamp

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/trackflyer/internal/model"
)

// ErrTrackNotFound is returned when a track is no longer listed on its page.
var ErrTrackNotFound = errors.New("track not found")

// Resolver finds the stream URL of a track.
//
// Stream URLs published on release pages are signed and expire. With Refresh
// set, the page is fetched again for every track instead of trusting the URL
// captured when the catalog was built.
type Resolver struct {
	fetcher Fetcher
	parser  *Parser
	Refresh bool
}

// NewResolver creates a Resolver.
func NewResolver(fetcher Fetcher, parser *Parser) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		parser:  parser,
	}
}

// Resolve returns the stream URL of track in a single attempt.
func (r *Resolver) Resolve(ctx context.Context, track *model.Track) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if track.StreamURL != "" && !r.Refresh {
		return track.StreamURL, nil
	}
	if track.Album == nil || track.Album.PageURL == "" {
		return "", fmt.Errorf("%w: %s has no release page", ErrTrackNotFound, track.Title)
	}

	html, err := r.fetcher.GetString(ctx, track.Album.PageURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", track.Album.PageURL, err)
	}

	album, err := r.parser.ParseAlbumPage(track.Album.PageURL, html)
	if err != nil {
		return "", err
	}

	for _, t := range album.Tracks {
		if t.Number == track.Number && t.StreamURL != "" {
			return t.StreamURL, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTrackNotFound, track.Title)
}
