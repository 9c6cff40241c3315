package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/trackflyer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	d := DefaultSettings()
	assert.Equal(t, d.MaxConcurrentDownloads, settings.MaxConcurrentDownloads)
	assert.Equal(t, d.DrainTimeout, settings.DrainTimeout)
	assert.Equal(t, WakeHoldAuto, settings.WakeHold)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackflyer.yaml")
	content := "max_concurrent_downloads: 8\ndrain_timeout: 5s\nwake_hold: none\nplaylist_format: pls\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, settings.MaxConcurrentDownloads)
	assert.Equal(t, 5*time.Second, settings.DrainTimeout)
	assert.Equal(t, WakeHoldNone, settings.WakeHold)
	assert.Equal(t, model.PlaylistFormatPLS, settings.ToPathConfig().PlaylistFormat)
	assert.True(t, settings.ModifyTags)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackflyer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_concurrent_downloads": 8}`), 0644))
	t.Setenv("TRACKFLYER_MAX_CONCURRENT_DOWNLOADS", "2")
	t.Setenv("TRACKFLYER_LOG_LEVEL", "debug")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, settings.MaxConcurrentDownloads)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent_downloads: 0\nwake_hold: sometimes\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_downloads")
	assert.Contains(t, err.Error(), "wake_hold")
}

func TestSettings_ToTrackConfig(t *testing.T) {
	s := DefaultSettings()
	s.FileNameFormat = "{title}.mp3"
	assert.Equal(t, "{title}.mp3", s.ToTrackConfig().FileNameFormat)
}

func TestSettings_ValidateScratchDir(t *testing.T) {
	root := t.TempDir()
	library := filepath.Join(root, "library")

	tests := []struct {
		name    string
		scratch string
		wantErr bool
	}{
		{"separate dir", filepath.Join(root, "scratch"), false},
		{"inside library", filepath.Join(library, ".scratch"), false},
		{"empty", "", true},
		{"library root", library, true},
		{"parent of library", root, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.DownloadsPath = filepath.Join(library, "{artist}", "{album}")
			s.ScratchDir = tt.scratch

			err := s.Validate()
			if tt.wantErr {
				assert.ErrorContains(t, err, "scratch_dir")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDownloadsRoot(t *testing.T) {
	assert.Equal(t, filepath.Join("/music"), downloadsRoot("/music/{artist}/{album}"))
	assert.Equal(t, filepath.Join("/music"), downloadsRoot("/music/bc-{artist}"))
	assert.Equal(t, filepath.Join("/music", "all"), downloadsRoot("/music/all"))
	assert.Empty(t, downloadsRoot("{artist}"))
}

func TestLoad_RefreshStreamURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh_stream_urls: true\n"), 0644))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.True(t, settings.RefreshStreamURLs)
	assert.False(t, DefaultSettings().RefreshStreamURLs)
}
