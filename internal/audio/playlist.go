package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/trackflyer/internal/io"
	"github.com/handiism/trackflyer/internal/model"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// PlaylistCreator renders album playlists.
//
// Entries are file names relative to the album directory, since playlists
// are written next to the tracks.
//
//	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	err := creator.WritePlaylist(album, finished)
type PlaylistCreator struct {
	format   model.PlaylistFormat
	extended bool // M3U only: #EXTINF lines
}

// NewPlaylistCreator creates a PlaylistCreator. extended is ignored for
// formats other than M3U.
func NewPlaylistCreator(format model.PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist renders a playlist for album listing tracks in order.
func (p *PlaylistCreator) CreatePlaylist(album *model.Album, tracks []*model.Track) string {
	switch p.format {
	case model.PlaylistFormatPLS:
		return createPLS(tracks)
	case model.PlaylistFormatWPL:
		return createWPL(album, tracks)
	case model.PlaylistFormatZPL:
		return createZPL(album, tracks)
	default:
		return p.createM3U(album, tracks)
	}
}

// WritePlaylist renders the playlist and writes it to album.PlaylistPath.
// Nothing is written when tracks is empty.
func (p *PlaylistCreator) WritePlaylist(album *model.Album, tracks []*model.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	if album.PlaylistPath == "" {
		return fmt.Errorf("album %q has no playlist path", album.Title)
	}
	if err := ioutils.EnsureDir(filepath.Dir(album.PlaylistPath)); err != nil {
		return err
	}
	return os.WriteFile(album.PlaylistPath, []byte(p.CreatePlaylist(album, tracks)), 0644)
}

func (p *PlaylistCreator) createM3U(album *model.Album, tracks []*model.Track) string {
	var sb strings.Builder
	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}
	for _, track := range tracks {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s - %s\n", int(track.Duration), album.Artist, track.Title)
		}
		sb.WriteString(filepath.Base(track.Path) + "\n")
	}
	return sb.String()
}

func createPLS(tracks []*model.Track) string {
	var sb strings.Builder
	sb.WriteString("[playlist]\n")
	for i, track := range tracks {
		n := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", n, filepath.Base(track.Path))
		fmt.Fprintf(&sb, "Title%d=%s\n", n, track.Title)
		fmt.Fprintf(&sb, "Length%d=%d\n", n, int(track.Duration))
	}
	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(tracks))
	sb.WriteString("Version=2\n")
	return sb.String()
}

func createWPL(album *model.Album, tracks []*model.Track) string {
	var sb strings.Builder
	sb.WriteString("<?wpl version=\"1.0\"?>\n<smil>\n  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", xmlEscaper.Replace(album.Title))
	sb.WriteString("  </head>\n  <body>\n    <seq>\n")
	for _, track := range tracks {
		fmt.Fprintf(&sb, "      <media src=\"%s\"/>\n", xmlEscaper.Replace(filepath.Base(track.Path)))
	}
	sb.WriteString("    </seq>\n  </body>\n</smil>\n")
	return sb.String()
}

// createZPL is WPL with per-entry album, artist and duration (ms) attributes.
func createZPL(album *model.Album, tracks []*model.Track) string {
	var sb strings.Builder
	sb.WriteString("<?zpl version=\"2.0\"?>\n<smil>\n  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", xmlEscaper.Replace(album.Title))
	sb.WriteString("    <meta name=\"Generator\" content=\"trackflyer\"/>\n")
	fmt.Fprintf(&sb, "    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(tracks))
	sb.WriteString("  </head>\n  <body>\n    <seq>\n")
	for _, track := range tracks {
		fmt.Fprintf(&sb, "      <media src=\"%s\" albumTitle=\"%s\" albumArtist=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\" duration=\"%d\"/>\n",
			xmlEscaper.Replace(filepath.Base(track.Path)),
			xmlEscaper.Replace(album.Title),
			xmlEscaper.Replace(album.Artist),
			xmlEscaper.Replace(track.Title),
			xmlEscaper.Replace(album.Artist),
			int64(track.Duration*1000))
	}
	sb.WriteString("    </seq>\n  </body>\n</smil>\n")
	return sb.String()
}
