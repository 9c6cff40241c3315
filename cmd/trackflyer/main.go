package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/download"
	"github.com/handiism/trackflyer/internal/logging"
)

func main() {
	// Command line flags
	var (
		urlsFlag        = flag.String("url", "", "Bandcamp URL(s) to download (comma-separated or newline-separated)")
		outputFlag      = flag.String("output", "", "Output directory (overrides config)")
		configFlag      = flag.String("config", "", "Path to config file")
		discographyFlag = flag.Bool("discography", false, "Download entire artist discography")
		playlistFlag    = flag.Bool("playlist", false, "Create playlist file")
		parallelFlag    = flag.Int("parallel", 0, "Maximum concurrent downloads (overrides config)")
		verboseFlag     = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag      = flag.Bool("dry-run", false, "Parse URLs without downloading")
	)

	flag.Parse()

	if *urlsFlag == "" && flag.NArg() == 0 {
		fmt.Println("trackflyer - parallel Bandcamp downloads")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  trackflyer -url <URL> [options]")
		fmt.Println("  trackflyer <URL> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: trackflyer-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.DownloadsPath = filepath.Join(*outputFlag, "{artist}", "{album}")
	}
	if *discographyFlag {
		settings.DownloadArtistDiscography = true
	}
	if *playlistFlag {
		settings.CreatePlaylist = true
	}
	if *parallelFlag > 0 {
		settings.MaxConcurrentDownloads = *parallelFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}

	urls := *urlsFlag
	if urls == "" {
		urls = flag.Arg(0)
	}

	logger := logging.New(settings.LogLevel, os.Stderr)

	svc, err := download.NewService(context.Background(), download.Options{
		Settings: settings,
		Sink:     download.NewLogSink(logger),
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	albums, err := svc.Load(context.Background(), urls)
	if err != nil {
		_ = svc.Kill()
		fmt.Fprintf(os.Stderr, "Error loading albums: %v\n", err)
		os.Exit(1)
	}
	for _, album := range albums {
		fmt.Printf("♪ %s - %s (%d tracks)\n", album.Artist, album.Title, len(album.Tracks))
	}

	if *dryRunFlag {
		_ = svc.Kill()
		fmt.Println("\n[Dry run - not downloading]")
		return
	}

	if _, err := svc.Submit(albums); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting downloads: %v\n", err)
		os.Exit(1)
	}

	// Handle interrupts
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interrupted := false
	select {
	case <-svc.Done():
	case <-sigCh:
		interrupted = true
		fmt.Println("\nInterrupted, cancelling...")
		if err := svc.Kill(); err != nil {
			logger.Error().Err(err).Msg("teardown failed")
		}
	}

	if err := svc.WritePlaylists(albums); err != nil {
		logger.Warn().Err(err).Msg("could not write playlists")
	}

	counts := svc.Counts()
	fmt.Println()
	switch {
	case interrupted:
		fmt.Printf("Download cancelled. %s\n", counts.Header())
		os.Exit(130)
	case svc.IsSingleDownload() && counts.Failed == 0:
		fmt.Println("✓ Track downloaded")
	case svc.IsSingleDownload():
		fmt.Println("✗ Track failed")
	default:
		fmt.Printf("✓ Complete! Downloaded %d/%d tracks\n", counts.Converted, counts.Total)
	}

	if err := svc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during teardown: %v\n", err)
		os.Exit(1)
	}
	if counts.Failed > 0 {
		os.Exit(2)
	}
}
