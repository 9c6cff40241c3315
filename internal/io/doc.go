// Package ioutils provides file system and image helpers.
//
// # Files
//
//	err := ioutils.MoveFile(ctx, "/tmp/scratch/x.part", "/music/Artist/Album/01 Song.mp3")
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // "Song_ Part 1_2"
//	err = ioutils.CleanScratch(scratchDir)              // removes *.part only
//
// # Cover art
//
//	svc := ioutils.NewImageService()
//	cover, err := svc.PrepareCover(ctx, pngData, 1000) // JPEG, fits in 1000x1000
package ioutils
