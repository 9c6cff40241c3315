// Package model defines the data shared by the orchestrator and its collaborators.
//
// # Descriptors
//
// Album and Track describe what to download and where it ends up. A Track is
// the job descriptor; its Key is the title:
//
//	album := model.NewAlbum("Artist", "Title", pageURL, artURL, released, pathCfg)
//	track := model.NewTrack(album, 1, 1, "Song", 180.5, "", streamURL, trackCfg)
//	fmt.Println(track.Path)
//
// Path templates accept {artist}, {album}, {title}, {tracknum}, {year}, {month}
// and {day}.
//
// # Stages
//
// Stage is a tagged variant over Queued, Downloading(progress), Converting,
// Downloaded and Failed(cause). Stage.Follows encodes the legal transitions.
//
// # Results and counters
//
// DownloadResult is the element type of a byte stream (progress, error or
// success). BatchCounts is a snapshot of the orchestrator's aggregate counters
// and carries the finish predicate.
package model
