package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	ioutils "github.com/handiism/trackflyer/internal/io"
	"github.com/handiism/trackflyer/internal/model"
)

// Embedder turns downloaded bytes into a finished, tagged file at track.Path.
//
// Bytes are first written to a .part file in the scratch directory, tagged
// there and then moved into place, so a cancelled job never leaves a half
// written file in the library. Leftover .part files are removed at teardown.
type Embedder struct {
	tagger     *Tagger
	scratchDir string
}

// NewEmbedder creates an Embedder writing intermediates to scratchDir. A nil
// tagger skips tagging.
func NewEmbedder(tagger *Tagger, scratchDir string) *Embedder {
	return &Embedder{
		tagger:     tagger,
		scratchDir: scratchDir,
	}
}

// ScratchDir returns the directory holding intermediate files.
func (e *Embedder) ScratchDir() string {
	return e.scratchDir
}

// Embed writes data for track. It checks ctx between steps and returns its
// error once cancelled; the intermediate file is removed on every failure.
func (e *Embedder) Embed(ctx context.Context, data []byte, track *model.Track) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if track.Path == "" {
		return errors.New("track has no destination path")
	}
	if err := ioutils.EnsureDir(e.scratchDir); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	f, err := os.CreateTemp(e.scratchDir, "*"+ioutils.PartSuffix)
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	_, werr := f.Write(data)
	if err := errors.Join(werr, f.Close()); err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}

	if e.tagger != nil && e.tagger.Enabled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.tagger.SaveTags(tmp, track); err != nil {
			return fmt.Errorf("tag %s: %w", track.Title, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ioutils.MoveFile(ctx, tmp, track.Path); err != nil {
		return fmt.Errorf("move to %s: %w", track.Path, err)
	}
	return nil
}
