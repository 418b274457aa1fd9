package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestMuxerFunc(t *testing.T) {
	assert := assert_.New(t)
	sentinel := fmt.Errorf("no ffmpeg")
	var m Muxer = MuxerFunc(func(ctx context.Context, v, a, o string) error {
		return sentinel
	})
	assert.ErrorIs(m.Mux(context.Background(), "v", "a", "o"), sentinel)
}

func TestFFmpegMuxerRemovesPartialOutput(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.mp4")
	assert.NoError(os.WriteFile(outputPath, []byte("partial"), 0644))

	m := &FFmpegMuxer{ffmpegPath: filepath.Join(dir, "no-such-ffmpeg")}
	err := m.Mux(context.Background(), "v.mp4", "a.m4a", outputPath)
	assert.Error(err)
	_, statErr := os.Stat(outputPath)
	assert.True(os.IsNotExist(statErr), "partial output should be removed")
}

func TestTailLines(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("c\nd\ne", tailLines("a\nb\nc\nd\ne\n", 3))
	assert.Equal("a\nb", tailLines("a\nb", 3))
	assert.Equal("", tailLines("", 3))
}
