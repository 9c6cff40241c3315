// Package audio finishes downloaded tracks: ID3 tagging, moving the file into
// the library, and playlists.
//
// # Embedding
//
// The Embedder is the conversion step of a job. It writes the downloaded bytes
// to a scratch .part file, tags it and moves it to track.Path:
//
//	embedder := audio.NewEmbedder(audio.NewTagger(audio.DefaultTagConfig()), scratchDir)
//	err := embedder.Embed(ctx, data, track)
//
// The tagger supports:
//   - Artist, Album Artist
//   - Album Title, Track Title
//   - Track Number, Disc Number, Year, Date
//   - Lyrics
//   - Cover Art (the album's prepared JPEG)
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true) // extended M3U
//	err := creator.WritePlaylist(album, downloadedTracks)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
