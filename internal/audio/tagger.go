package audio

import (
	"strconv"

	"github.com/bogem/id3v2"
	"github.com/handiism/trackflyer/internal/model"
)

// TagEditAction defines how a single ID3 frame is treated.
type TagEditAction int

const (
	// TagEmpty clears the frame.
	TagEmpty TagEditAction = iota

	// TagModify writes the value from the track descriptor.
	TagModify

	// TagDoNotModify leaves whatever the stream carried.
	TagDoNotModify
)

// TagConfig holds per-frame tagging rules.
//
//	cfg := &TagConfig{
//	    ModifyTags: true,
//	    Artist:     TagModify,
//	    Comments:   TagEmpty,    // drop the store's comment
//	    Lyrics:     TagDoNotModify,
//	}
type TagConfig struct {
	// ModifyTags is a master switch for text frames. Artwork is controlled
	// separately by SaveArtwork.
	ModifyTags bool

	// SaveArtwork embeds the album's prepared cover as the front cover picture.
	SaveArtwork bool

	Artist      TagEditAction // TPE1
	AlbumArtist TagEditAction // TPE2
	Album       TagEditAction // TALB
	Year        TagEditAction // TYER
	Date        TagEditAction // TDRC
	TrackNumber TagEditAction // TRCK
	DiscNumber  TagEditAction // TPOS
	TrackTitle  TagEditAction // TIT2
	Lyrics      TagEditAction // USLT
	Comments    TagEditAction // COMM
}

// DefaultTagConfig modifies every frame except comments, which are cleared.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:  true,
		SaveArtwork: true,
		Artist:      TagModify,
		AlbumArtist: TagModify,
		Album:       TagModify,
		Year:        TagModify,
		Date:        TagModify,
		TrackNumber: TagModify,
		DiscNumber:  TagModify,
		TrackTitle:  TagModify,
		Lyrics:      TagModify,
		Comments:    TagEmpty,
	}
}

// Tagger writes ID3 tags into MP3 files.
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a Tagger. A nil config means DefaultTagConfig.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Enabled reports whether SaveTags would touch the file at all.
func (t *Tagger) Enabled() bool {
	return t.config.ModifyTags || t.config.SaveArtwork
}

// SaveTags writes the tags of track into the MP3 file at path. The path is
// passed separately so the file can be tagged before it reaches track.Path.
func (t *Tagger) SaveTags(path string, track *model.Track) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	album := track.Album
	if album == nil {
		album = &model.Album{}
	}

	if t.config.ModifyTags {
		t.updateTextFrames(tag, track, album)
	}
	if t.config.SaveArtwork && len(album.Artwork) > 0 {
		setArtwork(tag, album.Artwork)
	}

	return tag.Save()
}

func (t *Tagger) updateTextFrames(tag *id3v2.Tag, track *model.Track, album *model.Album) {
	c := t.config

	apply(c.Artist, func() { tag.SetArtist("") }, func() { tag.SetArtist(album.Artist) })
	apply(c.Album, func() { tag.SetAlbum("") }, func() { tag.SetAlbum(album.Title) })
	apply(c.TrackTitle, func() { tag.SetTitle("") }, func() { tag.SetTitle(track.Title) })
	setText(tag, "TPE2", c.AlbumArtist, album.Artist)
	setText(tag, "TRCK", c.TrackNumber, strconv.Itoa(track.Number))

	if !album.ReleaseDate.IsZero() {
		setText(tag, "TYER", c.Year, album.ReleaseDate.Format("2006"))
		setText(tag, "TDRC", c.Date, album.ReleaseDate.Format("2006-01-02"))
	}

	disc := ""
	if track.DiscNumber > 0 {
		disc = strconv.Itoa(track.DiscNumber)
	}
	setText(tag, "TPOS", c.DiscNumber, disc)

	lyricsID := tag.CommonID("Unsynchronised lyrics/text transcription")
	apply(c.Lyrics, func() { tag.DeleteFrames(lyricsID) }, func() {
		if track.Lyrics == "" {
			return
		}
		tag.DeleteFrames(lyricsID)
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Lyrics:   track.Lyrics,
		})
	})

	if c.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}

	// No genre is published.
	tag.SetGenre("")
}

func apply(action TagEditAction, empty, modify func()) {
	switch action {
	case TagEmpty:
		empty()
	case TagModify:
		modify()
	}
}

// setText replaces a text frame. An empty value with TagModify only removes it.
func setText(tag *id3v2.Tag, id string, action TagEditAction, value string) {
	if action == TagDoNotModify {
		return
	}
	tag.DeleteFrames(id)
	if action == TagModify && value != "" {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
}

func setArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
