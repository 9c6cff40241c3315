package bandcamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/handiism/trackflyer/internal/bandcamp/dto"
	"github.com/handiism/trackflyer/internal/model"
)

var (
	errNoAlbumData = errors.New("could not find album data in HTML")

	urlConcat = regexp.MustCompile(`(url: ".+)" \+ "(.+",)`)
)

// Parser turns a release page into an album of track descriptors.
//
// Release pages embed their data as HTML-escaped JSON in a data-tralbum
// attribute. Lyrics are rendered separately in lyrics_row_N elements.
type Parser struct {
	pathConfig  *model.PathConfig
	trackConfig *model.TrackConfig
}

// NewParser creates a Parser. The configs decide where parsed tracks will be
// written.
func NewParser(pathCfg *model.PathConfig, trackCfg *model.TrackConfig) *Parser {
	return &Parser{
		pathConfig:  pathCfg,
		trackConfig: trackCfg,
	}
}

// ParseAlbumPage extracts the album published at pageURL from its HTML.
func (p *Parser) ParseAlbumPage(pageURL, htmlContent string) (*model.Album, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse album page: %w", err)
	}

	raw, err := extractAlbumData(doc)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve album data: %w", err)
	}

	var payload dto.JSONAlbum
	if err := json.Unmarshal([]byte(fixJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse album JSON: %w", err)
	}

	album := payload.ToAlbum(pageURL, p.pathConfig, p.trackConfig)
	extractLyrics(doc, album)
	return album, nil
}

// extractAlbumData returns the JSON held by the first data-tralbum attribute.
func extractAlbumData(doc *goquery.Document) (string, error) {
	raw, ok := doc.Find("[data-tralbum]").First().Attr("data-tralbum")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errNoAlbumData
	}
	return raw, nil
}

// fixJSON removes JavaScript string concatenation some pages leave in the
// payload: url: "http://x" + "/album/y", becomes url: "http://x/album/y",
func fixJSON(raw string) string {
	return urlConcat.ReplaceAllString(raw, "${1}${2}")
}

func extractLyrics(doc *goquery.Document, album *model.Album) {
	for _, track := range album.Tracks {
		row := doc.Find(fmt.Sprintf("#lyrics_row_%d", track.Number))
		if row.Length() == 0 {
			continue
		}
		track.Lyrics = strings.TrimSpace(row.First().Text())
	}
}
