package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPathConfig() *PathConfig {
	return &PathConfig{
		DownloadsPath:          "/music/{artist}/{album}",
		PlaylistFileNameFormat: "{album}",
		PlaylistFormat:         PlaylistFormatM3U,
	}
}

func TestAlbum_PathComputation(t *testing.T) {
	releaseDate := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)
	album := NewAlbum("Test Artist", "Test: Album", "", "https://example.com/art.jpg", releaseDate, testPathConfig())

	assert.Equal(t, "/music/Test Artist/Test_ Album", album.Path)
	assert.Equal(t, "/music/Test Artist/Test_ Album/Test_ Album.m3u", album.PlaylistPath)
	assert.True(t, album.HasArtwork())
}

func TestTrack_PathAndKey(t *testing.T) {
	releaseDate := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)
	album := NewAlbum("Artist", "Album", "", "", releaseDate, testPathConfig())
	track := NewTrack(album, 1, 1, "Track Title", 180.5, "", "http://example.com/track.mp3", &TrackConfig{
		FileNameFormat: "{tracknum} {title}.mp3",
	})

	assert.Equal(t, "/music/Artist/Album/01 Track Title.mp3", track.Path)
	assert.Equal(t, "Track Title", track.Key())
	assert.False(t, album.HasArtwork())
}

func TestParsePlaylistFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m3u", ".m3u"},
		{"PLS", ".pls"},
		{"wpl", ".wpl"},
		{"zpl", ".zpl"},
		{"bogus", ".m3u"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePlaylistFormat(tt.in).Extension())
		})
	}
}

func TestStage_Follows(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		prev Stage
		next Stage
		want bool
	}{
		{"queued to downloading", Queued(), Downloading(0), true},
		{"queued to failed", Queued(), Failed(cause), true},
		{"queued to converting", Queued(), Converting(), false},
		{"progress update", Downloading(0.2), Downloading(0.5), true},
		{"downloading to converting", Downloading(1), Converting(), true},
		{"downloading to downloaded", Downloading(1), Downloaded(), false},
		{"converting to downloaded", Converting(), Downloaded(), true},
		{"converting to failed", Converting(), Failed(cause), true},
		{"nothing after downloaded", Downloaded(), Failed(cause), false},
		{"nothing after failed", Failed(cause), Downloading(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.next.Follows(tt.prev))
		})
	}
}

func TestStage_DownloadingClamps(t *testing.T) {
	assert.Equal(t, 0.0, Downloading(-1).Progress)
	assert.Equal(t, 1.0, Downloading(3).Progress)
	assert.Equal(t, "downloading 50%", Downloading(0.5).String())
	assert.Equal(t, "failed: boom", Failed(errors.New("boom")).String())
}

func TestBatchCounts_Finished(t *testing.T) {
	assert.True(t, BatchCounts{}.Finished())
	assert.False(t, BatchCounts{Total: 3, Downloaded: 3, Converted: 2}.Finished())
	assert.True(t, BatchCounts{Total: 3, Converted: 2, Failed: 1}.Finished())
	assert.Equal(t, 1, BatchCounts{Total: 3, Converted: 2}.Pending())
	assert.Equal(t, "Total: 3  Completed: 2  Failed: 1", BatchCounts{Total: 3, Converted: 2, Failed: 1}.Header())
}
