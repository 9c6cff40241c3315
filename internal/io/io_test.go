package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-file.mp3", "normal-file.mp3"},
		{"file:with:colons.mp3", "file_with_colons.mp3"},
		{"file<with>brackets.mp3", "file_with_brackets.mp3"},
		{"file/with\\slashes.mp3", "file_with_slashes.mp3"},
		{"file?with*wildcards.mp3", "file_with_wildcards.mp3"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.input))
		})
	}
}

func TestMoveFile_CreatesTargetDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scratch.part")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	dst := filepath.Join(dir, "Artist", "Album", "01 Song.mp3")
	require.NoError(t, MoveFile(context.Background(), src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
	assert.NoFileExists(t, src)
}

func TestCleanScratch_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.part"), []byte("x"), 0644))

	require.NoError(t, CleanScratch(dir))
	assert.NoDirExists(t, dir)
	require.NoError(t, CleanScratch(dir))
	require.NoError(t, CleanScratch(""))
}

func TestCleanScratch_KeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	album := filepath.Join(dir, "Artist", "Album")
	require.NoError(t, EnsureDir(album))
	song := filepath.Join(album, "01 Song.mp3")
	require.NoError(t, os.WriteFile(song, []byte("done"), 0644))
	cover := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(cover, []byte("img"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.part"), []byte("half"), 0644))

	require.NoError(t, CleanScratch(dir))

	assert.FileExists(t, song)
	assert.FileExists(t, cover)
	assert.NoFileExists(t, filepath.Join(dir, "123.part"))
	assert.DirExists(t, dir)
}

func TestImageService_PrepareCover(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 150))
	for x := 0; x < 300; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := NewImageService().PrepareCover(context.Background(), buf.Bytes(), 100)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestFitBox(t *testing.T) {
	w, h := fitBox(800, 600, 1000, 1000)
	assert.Equal(t, [2]int{800, 600}, [2]int{w, h})

	w, h = fitBox(1500, 1000, 1000, 1000)
	assert.Equal(t, [2]int{1000, 666}, [2]int{w, h})
}
