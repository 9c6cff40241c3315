package download

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/trackflyer/internal/audio"
	"github.com/handiism/trackflyer/internal/bandcamp"
	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/http"
	"github.com/handiism/trackflyer/internal/lifecycle"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/handiism/trackflyer/internal/model"
	"github.com/handiism/trackflyer/internal/pool"
	"github.com/handiism/trackflyer/internal/status"
	"github.com/phuslu/log"
)

// Options configure a Service.
type Options struct {
	Settings *config.Settings
	Sink     Sink
	Logger   *log.Logger

	// WakeHold overrides the hold selected by Settings.WakeHold.
	WakeHold lifecycle.WakeHold
}

// Service is a download session: it loads albums, runs their tracks through
// the orchestrator and tears down once when everything finished or on Kill.
type Service struct {
	settings     *config.Settings
	logger       *log.Logger
	catalog      *bandcamp.Catalog
	orchestrator *Orchestrator
	guard        *lifecycle.Guard
	playlists    *audio.PlaylistCreator
}

// NewService wires a Service. It fails when the worker pool cannot be built.
func NewService(ctx context.Context, opts Options) (*Service, error) {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)

	wake := opts.WakeHold
	if wake == nil {
		var err error
		if wake, err = lifecycle.NewWakeHold(settings.WakeHold, logger); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	p, err := pool.New(ctx, settings.MaxConcurrentDownloads)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	client := http.NewClient(settings.HTTPTimeout, settings.ProgressInterval)
	parser := bandcamp.NewParser(settings.ToPathConfig(), settings.ToTrackConfig())

	tagCfg := audio.DefaultTagConfig()
	tagCfg.ModifyTags = settings.ModifyTags
	tagCfg.SaveArtwork = settings.SaveCoverArtInTags

	s := &Service{
		settings: settings,
		logger:   logger,
		catalog: bandcamp.NewCatalog(client, parser, bandcamp.CatalogOptions{
			Discography:         settings.DownloadArtistDiscography,
			MaxConcurrentAlbums: settings.MaxConcurrentAlbums,
			Artwork:             settings.SaveCoverArtInTags,
			ArtworkMaxSize:      settings.CoverArtInTagsMaxSize,
		}, logger),
		playlists: audio.NewPlaylistCreator(model.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended),
	}

	resolver := bandcamp.NewResolver(client, parser)
	resolver.Refresh = settings.RefreshStreamURLs

	broadcast := status.NewBroadcast()
	s.orchestrator, err = New(Config{
		Pool:       p,
		Status:     broadcast,
		Resolver:   resolver,
		Source:     client,
		Embedder:   audio.NewEmbedder(audio.NewTagger(tagCfg), settings.ScratchDir),
		Sink:       opts.Sink,
		OnFinished: s.onFinished,
		Logger:     logger,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	s.guard = lifecycle.NewGuard(lifecycle.Config{
		WakeHold:     wake,
		Pool:         p,
		Notice:       s.orchestrator,
		ScratchDir:   settings.ScratchDir,
		DrainTimeout: settings.DrainTimeout,
		Finished:     s.orchestrator.IsFinished,
		Cancel:       cancel,
		OnStopped:    broadcast.Close,
		Logger:       logger,
	})
	return s, nil
}

// Start acquires the wake hold. Calling it again while running is a no-op.
func (s *Service) Start() error {
	return s.guard.Start()
}

// Load expands input into albums without downloading anything.
func (s *Service) Load(ctx context.Context, input string) ([]*model.Album, error) {
	return s.catalog.Expand(ctx, input)
}

// Submit starts the session if needed, queues every track of albums and
// returns the batch id.
func (s *Service) Submit(albums []*model.Album) (string, error) {
	if err := s.guard.Start(); err != nil {
		return "", err
	}
	return s.orchestrator.SubmitBatch(bandcamp.Tracks(albums)), nil
}

// Kill stops all jobs and tears down, finished or not.
func (s *Service) Kill() error {
	return s.guard.RequestStop()
}

// Close tears down only when every job finished; otherwise the session keeps
// running and Close returns nil.
func (s *Service) Close() error {
	if !s.orchestrator.IsFinished() {
		s.logger.Info().Int("jobs", s.orchestrator.Counts().Pending()).Msg("close ignored, jobs pending")
		return nil
	}
	return s.guard.OnAllJobsObserved()
}

// Done is closed when teardown completed.
func (s *Service) Done() <-chan struct{} {
	return s.guard.Done()
}

// Err returns the teardown error once Done is closed.
func (s *Service) Err() error {
	return s.guard.Err()
}

// State returns the lifecycle state.
func (s *Service) State() lifecycle.State {
	return s.guard.State()
}

// Counts returns the batch counters.
func (s *Service) Counts() model.BatchCounts {
	return s.orchestrator.Counts()
}

// IsSingleDownload reports whether the latest batch held exactly one track.
func (s *Service) IsSingleDownload() bool {
	return s.orchestrator.IsSingleDownload()
}

// Status returns the per-track stage broadcast.
func (s *Service) Status() *status.Broadcast {
	return s.orchestrator.Status()
}

// WritePlaylists writes one playlist per album listing its downloaded tracks.
// It does nothing unless playlists are enabled in the settings.
func (s *Service) WritePlaylists(albums []*model.Album) error {
	if !s.settings.CreatePlaylist {
		return nil
	}

	var errs []error
	for _, album := range albums {
		var done []*model.Track
		for _, track := range album.Tracks {
			if st, ok := s.Status().Latest(track.Key()); ok && st.Kind == model.StageDownloaded {
				done = append(done, track)
			}
		}
		if err := s.playlists.WritePlaylist(album, done); err != nil {
			errs = append(errs, fmt.Errorf("playlist for %s: %w", album.Title, err))
			continue
		}
		if len(done) > 0 {
			s.logger.Info().Str("album", album.Title).Int("tracks", len(done)).Msg("playlist written")
		}
	}
	return errors.Join(errs...)
}

func (s *Service) onFinished() {
	if err := s.guard.OnAllJobsObserved(); err != nil {
		s.logger.Error().Err(err).Msg("teardown failed")
	}
}
