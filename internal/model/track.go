package model

import (
	"fmt"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/trackflyer/internal/io"
)

// Track is the job descriptor handed to the orchestrator: one track to resolve,
// download and tag.
//
// A track is identified by its title. Two tracks with the same title share a
// status key; that collision is accepted rather than guarded against.
type Track struct {
	// Album is the parent album, used for tag metadata and cover art.
	Album *Album

	// Number is the track number (1-indexed).
	Number int

	// DiscNumber is the disc the track belongs to, 0 when unknown.
	DiscNumber int

	// Title is the track title and the job key.
	Title string

	// Duration is the track length in seconds.
	Duration float64

	// Lyrics contains the song lyrics, empty when none are published.
	Lyrics string

	// StreamURL is the resolved audio stream, empty until resolved.
	StreamURL string

	// Path is the final local file path.
	Path string
}

// TrackConfig holds the track file name template.
//
// FileNameFormat accepts {tracknum}, {title}, {artist}, {album}, {year}, {month}
// and {day} and must include the extension.
type TrackConfig struct {
	FileNameFormat string
}

// NewTrack creates a Track and computes its local path below album.Path.
func NewTrack(album *Album, number, disc int, title string, duration float64, lyrics, streamURL string, cfg *TrackConfig) *Track {
	track := &Track{
		Album:      album,
		Number:     number,
		DiscNumber: disc,
		Title:      title,
		Duration:   duration,
		Lyrics:     lyrics,
		StreamURL:  streamURL,
	}
	track.Path = track.filePath(cfg)
	return track
}

// Key returns the status key of the track.
func (t *Track) Key() string {
	return t.Title
}

func (t *Track) filePath(cfg *TrackConfig) string {
	name := t.fileName(cfg)
	full := filepath.Join(t.Album.Path, name)

	// MAX_PATH
	if len(full) >= 260 {
		ext := filepath.Ext(name)
		if maxLen := 11 - len(ext); maxLen > 0 && maxLen < len(name) {
			full = filepath.Join(t.Album.Path, name[:maxLen]+ext)
		}
	}
	return full
}

func (t *Track) fileName(cfg *TrackConfig) string {
	r := strings.NewReplacer(
		"{year}", t.Album.ReleaseDate.Format("2006"),
		"{month}", t.Album.ReleaseDate.Format("01"),
		"{day}", t.Album.ReleaseDate.Format("02"),
		"{album}", t.Album.Title,
		"{artist}", t.Album.Artist,
		"{title}", t.Title,
		"{tracknum}", fmt.Sprintf("%02d", t.Number),
	)
	return ioutils.SanitizeFileName(r.Replace(cfg.FileNameFormat))
}
