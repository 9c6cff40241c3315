// Package download runs download jobs: one job per track, bounded by the
// worker pool, each moving through Queued, Downloading, Converting and
// Downloaded, or ending Failed.
//
// # Orchestrator
//
// The Orchestrator owns the batch counters. It publishes every stage to the
// status broadcast, keeps the rolling notice in sync and renders the summary
// to a Sink after each change:
//
//	o, err := download.New(download.Config{
//	    Pool:     p,
//	    Resolver: resolver,
//	    Source:   client,
//	    Embedder: embedder,
//	    Sink:     download.NewLogSink(logger),
//	})
//	o.SubmitBatch(tracks)
//
// A job fails with a *JobError whose kind is ErrResolve, ErrTransport or
// ErrProcessing. Failures, panics included, stay with their job; siblings
// keep running. Each job increments exactly one of converted or failed, so the
// finish predicate (converted + failed == total) always becomes true.
//
// # Service
//
// Service wires the orchestrator to the Bandcamp catalog, the HTTP client, the
// embedder and a lifecycle guard:
//
//	svc, err := download.NewService(ctx, download.Options{Settings: settings, Sink: sink})
//	albums, err := svc.Load(ctx, "https://artist.bandcamp.com/album/name")
//	_, err = svc.Submit(albums)
//	<-svc.Done()
//	err = svc.WritePlaylists(albums)
//
// The session tears down by itself once every job finished. Kill stops it
// early; Close only tears down a finished session.
package download
