// Package bandcamp produces and resolves the track descriptors downloaded by
// the orchestrator.
//
// # Catalog
//
// A Catalog expands user input (album, track or artist URLs, one per line)
// into albums. Album pages are fetched concurrently and cover art is fetched
// and resized once per album:
//
//	catalog := bandcamp.NewCatalog(client, parser, bandcamp.CatalogOptions{
//	    Discography:         true,
//	    MaxConcurrentAlbums: 2,
//	    Artwork:             true,
//	    ArtworkMaxSize:      1000,
//	}, logger)
//	albums, err := catalog.Expand(ctx, input)
//	tracks := bandcamp.Tracks(albums)
//
// # Resolver
//
// The Resolver returns a track's stream URL, re-reading its release page when
// the URL is missing (or always, with Refresh).
//
// # Bandcamp Data Format
//
// Release pages embed their data as JSON in a data-tralbum attribute. The
// Parser extracts it, repairs string concatenation left in the JSON and
// decodes Bandcamp's date format. Artist pages list releases on /music; the
// Discography pulls /album/ and /track/ links from it.
package bandcamp
