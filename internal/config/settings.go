package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/trackflyer/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRACKFLYER_LOG_LEVEL.
const EnvPrefix = "TRACKFLYER"

// Wake hold modes.
const (
	WakeHoldAuto   = "auto"
	WakeHoldLogind = "logind"
	WakeHoldNone   = "none"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath             string        `mapstructure:"downloads_path"`
	ScratchDir                string        `mapstructure:"scratch_dir"`
	MaxConcurrentDownloads    int           `mapstructure:"max_concurrent_downloads"`
	MaxConcurrentAlbums       int           `mapstructure:"max_concurrent_albums"`
	DownloadArtistDiscography bool          `mapstructure:"download_artist_discography"`
	HTTPTimeout               time.Duration `mapstructure:"http_timeout"`
	ProgressInterval          time.Duration `mapstructure:"progress_interval"`

	// RefreshStreamURLs re-reads the release page for every track instead of
	// using the stream URL captured when the albums were loaded.
	RefreshStreamURLs bool `mapstructure:"refresh_stream_urls"`

	// Lifecycle
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
	WakeHold     string        `mapstructure:"wake_hold"`

	// File naming
	FileNameFormat         string `mapstructure:"file_name_format"`
	PlaylistFileNameFormat string `mapstructure:"playlist_file_name_format"`

	// Tags and cover art
	ModifyTags            bool `mapstructure:"modify_tags"`
	SaveCoverArtInTags    bool `mapstructure:"save_cover_art_in_tags"`
	CoverArtInTagsMaxSize int  `mapstructure:"cover_art_in_tags_max_size"`

	// Playlist settings
	CreatePlaylist bool   `mapstructure:"create_playlist"`
	PlaylistFormat string `mapstructure:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `mapstructure:"m3u_extended"`

	LogLevel string `mapstructure:"log_level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:             filepath.Join(homeDir, "Music", "trackflyer", "{artist}", "{album}"),
		ScratchDir:                filepath.Join(os.TempDir(), "trackflyer"),
		MaxConcurrentDownloads:    4,
		MaxConcurrentAlbums:       2,
		DownloadArtistDiscography: false,
		HTTPTimeout:               60 * time.Second,
		ProgressInterval:          200 * time.Millisecond,
		RefreshStreamURLs:         false,

		DrainTimeout: 30 * time.Second,
		WakeHold:     WakeHoldAuto,

		FileNameFormat:         "{tracknum} {artist} - {title}.mp3",
		PlaylistFileNameFormat: "{album}",

		ModifyTags:            true,
		SaveCoverArtInTags:    true,
		CoverArtInTagsMaxSize: 1000,

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		LogLevel: "info",
	}
}

// Load reads settings from path (json, yaml or toml by extension) on top of the
// defaults, then applies TRACKFLYER_* environment overrides. A missing file
// yields the defaults. An empty path skips the file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	registerDefaults(v, DefaultSettings())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate rejects settings the orchestrator cannot start with.
func (s *Settings) Validate() error {
	var errs []error
	if s.MaxConcurrentDownloads < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_downloads must be at least 1, got %d", s.MaxConcurrentDownloads))
	}
	if s.MaxConcurrentAlbums < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_albums must be at least 1, got %d", s.MaxConcurrentAlbums))
	}
	if s.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("drain_timeout must be positive, got %s", s.DrainTimeout))
	}
	switch s.WakeHold {
	case WakeHoldAuto, WakeHoldLogind, WakeHoldNone:
	default:
		errs = append(errs, fmt.Errorf("wake_hold must be one of auto, logind, none, got %q", s.WakeHold))
	}
	if err := s.validateScratchDir(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateScratchDir keeps the scratch directory out of the library: it may
// not be empty, and may not be the downloads root or one of its parents.
func (s *Settings) validateScratchDir() error {
	if strings.TrimSpace(s.ScratchDir) == "" {
		return errors.New("scratch_dir must not be empty")
	}
	root := downloadsRoot(s.DownloadsPath)
	if root == "" {
		return nil
	}

	scratch, err := filepath.Abs(s.ScratchDir)
	if err != nil {
		return fmt.Errorf("scratch_dir: %w", err)
	}
	library, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("downloads_path: %w", err)
	}

	rel, err := filepath.Rel(scratch, library)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("scratch_dir %q must not contain downloads_path root %q", s.ScratchDir, root)
	}
	return nil
}

// downloadsRoot returns the fixed directory a downloads path template starts
// with, i.e. everything before the first placeholder's path segment.
//
//	downloadsRoot("/music/{artist}/{album}") // "/music"
//	downloadsRoot("/music/bc-{artist}")      // "/music"
func downloadsRoot(template string) string {
	i := strings.Index(template, "{")
	if i < 0 {
		return filepath.Clean(template)
	}
	prefix := template[:i]
	if prefix == "" {
		return ""
	}
	if strings.HasSuffix(prefix, string(filepath.Separator)) || strings.HasSuffix(prefix, "/") {
		return filepath.Clean(prefix)
	}
	return filepath.Dir(prefix)
}

// ToPathConfig converts settings to PathConfig.
func (s *Settings) ToPathConfig() *model.PathConfig {
	return &model.PathConfig{
		DownloadsPath:          s.DownloadsPath,
		PlaylistFileNameFormat: s.PlaylistFileNameFormat,
		PlaylistFormat:         model.ParsePlaylistFormat(s.PlaylistFormat),
	}
}

// ToTrackConfig converts settings to TrackConfig.
func (s *Settings) ToTrackConfig() *model.TrackConfig {
	return &model.TrackConfig{
		FileNameFormat: s.FileNameFormat,
	}
}

func registerDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("downloads_path", d.DownloadsPath)
	v.SetDefault("scratch_dir", d.ScratchDir)
	v.SetDefault("max_concurrent_downloads", d.MaxConcurrentDownloads)
	v.SetDefault("max_concurrent_albums", d.MaxConcurrentAlbums)
	v.SetDefault("download_artist_discography", d.DownloadArtistDiscography)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("progress_interval", d.ProgressInterval)
	v.SetDefault("refresh_stream_urls", d.RefreshStreamURLs)
	v.SetDefault("drain_timeout", d.DrainTimeout)
	v.SetDefault("wake_hold", d.WakeHold)
	v.SetDefault("file_name_format", d.FileNameFormat)
	v.SetDefault("playlist_file_name_format", d.PlaylistFileNameFormat)
	v.SetDefault("modify_tags", d.ModifyTags)
	v.SetDefault("save_cover_art_in_tags", d.SaveCoverArtInTags)
	v.SetDefault("cover_art_in_tags_max_size", d.CoverArtInTagsMaxSize)
	v.SetDefault("create_playlist", d.CreatePlaylist)
	v.SetDefault("playlist_format", d.PlaylistFormat)
	v.SetDefault("m3u_extended", d.M3UExtended)
	v.SetDefault("log_level", d.LogLevel)
}
