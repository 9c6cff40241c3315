package bandcamp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	ioutils "github.com/handiism/trackflyer/internal/io"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/handiism/trackflyer/internal/model"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves pages and binary assets. *http.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	GetString(ctx context.Context, url string) (string, error)
}

// CatalogOptions controls how input URLs are expanded.
type CatalogOptions struct {
	// Discography expands artist root URLs into every release on /music.
	Discography bool

	// MaxConcurrentAlbums bounds concurrent album page fetches.
	MaxConcurrentAlbums int

	// Artwork fetches and prepares cover art for each album.
	Artwork bool

	// ArtworkMaxSize is the cover box edge in pixels, 0 keeps the original size.
	ArtworkMaxSize int
}

// Catalog expands user input into albums of track descriptors.
type Catalog struct {
	fetcher     Fetcher
	parser      *Parser
	discography *Discography
	images      *ioutils.ImageService
	opts        CatalogOptions
	logger      *log.Logger
}

// NewCatalog creates a Catalog.
func NewCatalog(fetcher Fetcher, parser *Parser, opts CatalogOptions, logger *log.Logger) *Catalog {
	if opts.MaxConcurrentAlbums < 1 {
		opts.MaxConcurrentAlbums = 1
	}
	return &Catalog{
		fetcher:     fetcher,
		parser:      parser,
		discography: NewDiscography(),
		images:      ioutils.NewImageService(),
		opts:        opts,
		logger:      logging.OrDiscard(logger),
	}
}

// Expand turns input (one URL per line, anything else ignored) into albums, in
// input order. Albums that fail to load are logged and skipped; an error is
// returned only when nothing could be loaded or ctx was cancelled.
func (c *Catalog) Expand(ctx context.Context, input string) ([]*model.Album, error) {
	var pages []string
	var errs []error
	for _, inputURL := range ParseInputURLs(input) {
		urls, err := c.albumURLs(ctx, inputURL)
		if err != nil {
			c.logger.Warn().Str("url", inputURL).Err(err).Msg("could not list releases")
			errs = append(errs, err)
			continue
		}
		pages = append(pages, urls...)
	}

	albums := make([]*model.Album, len(pages))

	var g errgroup.Group
	g.SetLimit(c.opts.MaxConcurrentAlbums)
	for i, page := range pages {
		g.Go(func() error {
			album, err := c.loadAlbum(ctx, page)
			if err != nil {
				c.logger.Warn().Str("url", page).Err(err).Msg("could not load album")
				return err
			}
			albums[i] = album
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	albums = slices.DeleteFunc(albums, func(a *model.Album) bool { return a == nil })
	if len(albums) == 0 {
		if len(errs) == 0 {
			return nil, ErrNoAlbumFound
		}
		return nil, fmt.Errorf("%w: %w", ErrNoAlbumFound, errors.Join(errs...))
	}
	return albums, nil
}

// Tracks flattens albums into the job descriptors handed to the orchestrator.
func Tracks(albums []*model.Album) []*model.Track {
	var tracks []*model.Track
	for _, album := range albums {
		tracks = append(tracks, album.Tracks...)
	}
	return tracks
}

// ParseInputURLs returns the http(s) URLs of input, one per line.
func ParseInputURLs(input string) []string {
	var urls []string
	for line := range strings.Lines(input) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	return urls
}

func (c *Catalog) albumURLs(ctx context.Context, inputURL string) ([]string, error) {
	parsed, err := url.Parse(inputURL)
	if err != nil {
		return nil, err
	}

	if strings.Contains(parsed.Path, "/album/") || strings.Contains(parsed.Path, "/track/") || !c.opts.Discography {
		return []string{inputURL}, nil
	}

	base := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	html, err := c.fetcher.GetString(ctx, base+"/music")
	if err != nil {
		return nil, err
	}

	relative, err := c.discography.GetAlbumURLs(html)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(relative))
	for i, rel := range relative {
		urls[i] = base + rel
	}
	return urls, nil
}

func (c *Catalog) loadAlbum(ctx context.Context, pageURL string) (*model.Album, error) {
	html, err := c.fetcher.GetString(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	album, err := c.parser.ParseAlbumPage(pageURL, html)
	if err != nil {
		return nil, err
	}

	if c.opts.Artwork && album.HasArtwork() {
		if err := c.loadArtwork(ctx, album); err != nil {
			// Tracks are still worth downloading without a cover.
			c.logger.Warn().Str("album", album.Title).Err(err).Msg("could not load cover art")
		}
	}

	c.logger.Info().Str("artist", album.Artist).Str("album", album.Title).Int("tracks", len(album.Tracks)).Msg("found album")
	return album, nil
}

func (c *Catalog) loadArtwork(ctx context.Context, album *model.Album) error {
	raw, err := c.fetcher.Get(ctx, album.ArtworkURL)
	if err != nil {
		return err
	}

	cover, err := c.images.PrepareCover(ctx, raw, c.opts.ArtworkMaxSize)
	if err != nil {
		return err
	}
	album.Artwork = cover
	return nil
}
