package model

import (
	"path/filepath"
	"strings"
	"time"

	ioutils "github.com/handiism/trackflyer/internal/io"
)

// Album groups track descriptors that share artist, release and cover art.
//
// Albums are produced by the catalog from a release page. The orchestrator never
// sees an Album directly; it only works with the Tracks it contains. The album is
// kept around afterwards so playlists can be written for finished tracks.
type Album struct {
	// Artist is the album artist name.
	Artist string

	// Title is the album title.
	Title string

	// PageURL is the release page the album was parsed from.
	PageURL string

	// ArtworkURL is the cover art location. Empty means no cover art.
	ArtworkURL string

	// Artwork holds the prepared (resized, JPEG) cover art, nil until fetched.
	Artwork []byte

	// ReleaseDate is when the album was released.
	ReleaseDate time.Time

	// Tracks contains all downloadable tracks of the album.
	Tracks []*Track

	// Path is the local directory the album's tracks are moved into.
	Path string

	// PlaylistPath is the local playlist file for the album.
	PlaylistPath string
}

// PathConfig holds the templates used to place albums on disk.
//
// Templates accept {artist}, {album}, {year}, {month} and {day}.
type PathConfig struct {
	DownloadsPath          string
	PlaylistFileNameFormat string
	PlaylistFormat         PlaylistFormat
}

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	PlaylistFormatM3U PlaylistFormat = iota
	PlaylistFormatPLS
	PlaylistFormatWPL
	PlaylistFormatZPL
)

// ParsePlaylistFormat maps a settings value to a PlaylistFormat, defaulting to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return PlaylistFormatPLS
	case "wpl":
		return PlaylistFormatWPL
	case "zpl":
		return PlaylistFormatZPL
	default:
		return PlaylistFormatM3U
	}
}

// Extension returns the file extension for the playlist format, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	case PlaylistFormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// NewAlbum creates an Album and computes its local paths from cfg.
func NewAlbum(artist, title, pageURL, artworkURL string, releaseDate time.Time, cfg *PathConfig) *Album {
	album := &Album{
		Artist:      artist,
		Title:       title,
		PageURL:     pageURL,
		ArtworkURL:  artworkURL,
		ReleaseDate: releaseDate,
	}

	album.Path = album.expand(cfg.DownloadsPath, true)
	if len(album.Path) >= 248 {
		album.Path = album.Path[:247]
	}

	name := ioutils.SanitizeFileName(album.expand(cfg.PlaylistFileNameFormat, false))
	album.PlaylistPath = filepath.Join(album.Path, name+cfg.PlaylistFormat.Extension())

	return album
}

// HasArtwork reports whether the album has cover art to fetch.
func (a *Album) HasArtwork() bool {
	return a.ArtworkURL != ""
}

// expand replaces album placeholders in tmpl. When perSegment is set every value
// is sanitized on its own so path separators in the template survive.
func (a *Album) expand(tmpl string, perSegment bool) string {
	clean := func(s string) string {
		if perSegment {
			return ioutils.SanitizeFileName(s)
		}
		return s
	}

	r := strings.NewReplacer(
		"{year}", clean(a.ReleaseDate.Format("2006")),
		"{month}", clean(a.ReleaseDate.Format("01")),
		"{day}", clean(a.ReleaseDate.Format("02")),
		"{artist}", clean(a.Artist),
		"{album}", clean(a.Title),
	)
	return r.Replace(tmpl)
}
