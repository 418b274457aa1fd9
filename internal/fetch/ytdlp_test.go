package fetch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func TestNewYtdlpFetcherFormatFallback(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("best", NewYtdlpFetcher("/tmp", "nonsense", "").format)
	assert.Equal("720p", NewYtdlpFetcher("/tmp", "720p", "").format)
	assert.Equal("best", NewYtdlpFetcher("/tmp", "", "").format)
}

func TestBuildArgs(t *testing.T) {
	assert := assert_.New(t)
	f := NewYtdlpFetcher("/tmp", "720p", "")
	args := f.buildArgs("/usr/bin/ffmpeg", "/tmp/stage", "https://youtu.be/x")
	assert.Contains(args, ytdlpFormats["720p"])
	assert.Contains(args, "--merge-output-format")
	assert.Contains(args, "/usr/bin/ffmpeg")
	assert.Contains(args, filepath.Join("/tmp/stage", "%(title).200B.%(ext)s"))
	assert.NotContains(args, "--proxy")
	// URL always comes last.
	assert.Equal("https://youtu.be/x", args[len(args)-1])
}

func TestBuildArgsWithProxy(t *testing.T) {
	assert := assert_.New(t)
	f := NewYtdlpFetcher("/tmp", "best", "http://proxy.local:3128")
	args := f.buildArgs("ffmpeg", "/tmp/stage", "https://youtu.be/x")
	assert.Contains(args, "--proxy")
	assert.Contains(args, "http://proxy.local:3128")
	assert.Equal("https://youtu.be/x", args[len(args)-1])
}

func TestNewestFile(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()

	older := filepath.Join(dir, "Old Video.webm")
	newer := filepath.Join(dir, "New Video.mp4")
	assert.NoError(os.WriteFile(older, []byte("old"), 0644))
	assert.NoError(os.WriteFile(newer, []byte("new bytes"), 0644))
	past := time.Now().Add(-time.Hour)
	assert.NoError(os.Chtimes(older, past, past))
	// Subdirectories are ignored.
	assert.NoError(os.MkdirAll(filepath.Join(dir, "fragments"), 0755))

	artifact, err := newestFile(dir)
	assert.NoError(err)
	assert.Equal(newer, artifact.Path)
	assert.Equal("New Video", artifact.Title)
	assert.Equal("mp4", artifact.Container)
	assert.Equal(int64(9), artifact.Size)
}

func TestNewestFileEmpty(t *testing.T) {
	assert := assert_.New(t)
	_, err := newestFile(t.TempDir())
	assert.Error(err)
}

func TestLooksUnavailable(t *testing.T) {
	assert := assert_.New(t)
	assert.True(looksUnavailable("ERROR: [youtube] abc: Video unavailable"))
	assert.True(looksUnavailable("ERROR: [youtube] abc: Private video. Sign in if you've been granted access"))
	assert.True(looksUnavailable("ERROR: Sign in to confirm your age"))
	assert.False(looksUnavailable("ERROR: unable to download video data: HTTP Error 403"))
	assert.False(looksUnavailable(""))
}

func TestLineCollector(t *testing.T) {
	assert := assert_.New(t)
	c := newLineCollector(3)
	c.consume(strings.NewReader("one\n\ntwo\nthree\nfour\n"))
	// Capped at max lines, tail returns the most recent ones.
	assert.Equal("two\nthree\nfour", c.tail())
}
