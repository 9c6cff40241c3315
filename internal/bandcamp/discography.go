package bandcamp

import (
	"errors"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// ErrNoAlbumFound is returned when a page lists no album or track.
var ErrNoAlbumFound = errors.New("no album found on page")

var (
	releaseLink = regexp.MustCompile(`(/(album|track)/.+?)("|&quot;)`)
	albumHref   = regexp.MustCompile(`href="(/album/.+?)"`)
)

// Discography lists the releases on an artist's /music page.
//
// Artists with a single release get redirected from /music to the album page
// itself; that page is recognised by its discography div.
type Discography struct{}

// NewDiscography creates a new Discography service.
func NewDiscography() *Discography {
	return &Discography{}
}

// GetAlbumURLs returns the unique relative release paths (/album/x, /track/y)
// on musicPageHTML, sorted. It returns ErrNoAlbumFound when there are none.
func (d *Discography) GetAlbumURLs(musicPageHTML string) ([]string, error) {
	if strings.Contains(musicPageHTML, `div id="discography"`) {
		url, err := singleAlbumURL(musicPageHTML)
		if err != nil {
			return nil, err
		}
		return []string{url}, nil
	}

	urls := uniqueMatches(releaseLink, musicPageHTML)
	if len(urls) == 0 {
		return nil, ErrNoAlbumFound
	}
	return urls, nil
}

func singleAlbumURL(html string) (string, error) {
	urls := uniqueMatches(albumHref, html)
	switch len(urls) {
	case 0:
		return "", ErrNoAlbumFound
	case 1:
		return urls[0], nil
	default:
		return "", errors.New("found multiple album URLs, expected exactly one")
	}
}

func uniqueMatches(re *regexp.Regexp, s string) []string {
	set := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if len(m) > 1 {
			set[m[1]] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}
