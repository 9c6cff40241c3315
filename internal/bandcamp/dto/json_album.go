package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/handiism/trackflyer/internal/model"
)

const (
	artworkURLStart = "https://f4.bcbits.com/img/a"
	artworkURLEnd   = "_0.jpg"
)

var dateLayouts = []string{
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// BandcampTime decodes dates like "01 Jan 2023 00:00:00 GMT".
type BandcampTime struct {
	time.Time
}

func (bt *BandcampTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		bt.Time = time.Time{}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			bt.Time = t
			return nil
		}
	}
	return fmt.Errorf("unable to parse date: %s", s)
}

// JSONAlbum is the data-tralbum payload of a release page.
type JSONAlbum struct {
	Current     *JSONAlbumData `json:"current"`
	ArtID       *int64         `json:"art_id"`
	Artist      string         `json:"artist"`
	ReleaseDate *BandcampTime  `json:"album_release_date"`
	Tracks      []JSONTrack    `json:"trackinfo"`
}

type JSONAlbumData struct {
	Title       string        `json:"title"`
	ReleaseDate *BandcampTime `json:"release_date"`
	PublishDate *BandcampTime `json:"publish_date"`
}

type JSONTrack struct {
	Duration float64      `json:"duration"`
	File     *JSONMp3File `json:"file"`
	Lyrics   string       `json:"lyrics"`
	Number   *int         `json:"track_num"`
	Title    string       `json:"title"`
}

type JSONMp3File struct {
	URL string `json:"mp3-128"`
}

// ToAlbum converts the payload into an album of track descriptors. Tracks
// without a streamable file are skipped.
func (ja *JSONAlbum) ToAlbum(pageURL string, pathCfg *model.PathConfig, trackCfg *model.TrackConfig) *model.Album {
	var artworkURL string
	if ja.ArtID != nil {
		artworkURL = fmt.Sprintf("%s%010d%s", artworkURLStart, *ja.ArtID, artworkURLEnd)
	}

	title := ""
	if ja.Current != nil {
		title = ja.Current.Title
	}

	album := model.NewAlbum(ja.Artist, title, pageURL, artworkURL, ja.releaseDate(), pathCfg)
	for _, jt := range ja.Tracks {
		if jt.File == nil || jt.File.URL == "" {
			continue
		}
		album.Tracks = append(album.Tracks, jt.toTrack(album, trackCfg))
	}
	return album
}

func (ja *JSONAlbum) releaseDate() time.Time {
	switch {
	case ja.ReleaseDate != nil:
		return ja.ReleaseDate.Time
	case ja.Current != nil && ja.Current.ReleaseDate != nil:
		return ja.Current.ReleaseDate.Time
	case ja.Current != nil && ja.Current.PublishDate != nil:
		return ja.Current.PublishDate.Time
	default:
		return time.Time{}
	}
}

func (jt *JSONTrack) toTrack(album *model.Album, cfg *model.TrackConfig) *model.Track {
	streamURL := jt.File.URL
	if strings.HasPrefix(streamURL, "//") {
		streamURL = "http:" + streamURL
	}

	// Single-track pages carry no track_num.
	number := 1
	if jt.Number != nil {
		number = *jt.Number
	}

	// Bandcamp does not expose discs.
	return model.NewTrack(album, number, 1, jt.Title, jt.Duration, jt.Lyrics, streamURL, cfg)
}
