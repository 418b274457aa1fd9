package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zubairAhmed777/yt-downldr/internal/utils"
)

var ytdlpFormats = map[string]string{
	"best":    "bestvideo+bestaudio/best",
	"best60":  "bestvideo[fps<=60]+bestaudio/best",
	"bestmp4": "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"decent":  "bestvideo[height<=1080]+bestaudio/best",
	"cheap":   "bestvideo[height<=720]+bestaudio/best",
	"1080p":   "bestvideo[height=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"720p":    "bestvideo[height=720][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"480p":    "bestvideo[height=480][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
}

// YtdlpFetcher shells out to yt-dlp, which handles DASH streams and
// merges audio/video through ffmpeg on its own.
type YtdlpFetcher struct {
	dir      string
	format   string
	proxyURL string
}

func NewYtdlpFetcher(dir, format, proxyURL string) *YtdlpFetcher {
	if _, ok := ytdlpFormats[format]; !ok {
		format = "best"
	}
	return &YtdlpFetcher{dir: dir, format: format, proxyURL: proxyURL}
}

func (f *YtdlpFetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	ytdlpPath, err := EnsureYtdlp()
	if err != nil {
		return nil, fmt.Errorf("error ensuring yt-dlp: %v", err)
	}
	ffmpegPath, err := EnsureFFmpeg()
	if err != nil {
		return nil, fmt.Errorf("error ensuring ffmpeg: %v", err)
	}

	staging := filepath.Join(f.dir, uuid.NewString())
	if err := utils.EnsureDir(staging); err != nil {
		return nil, fmt.Errorf("error creating staging directory: %v", err)
	}
	artifact, err := f.run(ctx, ytdlpPath, ffmpegPath, staging, url)
	if err != nil {
		os.RemoveAll(staging)
		return nil, err
	}
	return artifact, nil
}

func (f *YtdlpFetcher) buildArgs(ffmpegPath, staging, url string) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"--geo-bypass",
		"--socket-timeout", "15",
		"-f", ytdlpFormats[f.format],
		"--merge-output-format", "mp4",
		"--ffmpeg-location", ffmpegPath,
		"-o", filepath.Join(staging, "%(title).200B.%(ext)s"),
	}
	if f.proxyURL != "" {
		args = append(args, "--proxy", f.proxyURL)
	}
	return append(args, url)
}

func (f *YtdlpFetcher) run(ctx context.Context, ytdlpPath, ffmpegPath, staging, url string) (*Artifact, error) {
	cmd := exec.CommandContext(ctx, ytdlpPath, f.buildArgs(ffmpegPath, staging, url)...)
	log.Debug().Str("op", "fetch/ytdlp").Msgf("Executing yt-dlp command: %s", cmd.String())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting yt-dlp: %v", err)
	}

	collector := newLineCollector(errorTailLines)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		collector.consume(stdout)
	}()
	go func() {
		defer wg.Done()
		collector.consume(stderr)
	}()
	wg.Wait()
	if err := cmd.Wait(); err != nil {
		tail := collector.tail()
		log.Error().Str("op", "fetch/ytdlp").Err(err).Msg("yt-dlp command failed")
		if looksUnavailable(tail) {
			return nil, &UnavailableError{URL: url, Err: fmt.Errorf("yt-dlp: %s", tail)}
		}
		return nil, fmt.Errorf("yt-dlp failed: %v: %s", err, tail)
	}

	artifact, err := newestFile(staging)
	if err != nil {
		return nil, err
	}
	log.Info().Str("op", "fetch/ytdlp").Msgf("yt-dlp download completed for %s", url)
	return artifact, nil
}

// newestFile returns the most recently modified file in dir as the
// download result, mirroring how yt-dlp names output by video title.
func newestFile(dir string) (*Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading staging directory: %v", err)
	}
	var artifact *Artifact
	var newest int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if artifact == nil || info.ModTime().UnixNano() > newest {
			newest = info.ModTime().UnixNano()
			name := entry.Name()
			ext := strings.TrimPrefix(filepath.Ext(name), ".")
			artifact = &Artifact{
				Path:      filepath.Join(dir, name),
				Title:     strings.TrimSuffix(name, filepath.Ext(name)),
				Size:      info.Size(),
				Container: ext,
			}
		}
	}
	if artifact == nil {
		return nil, fmt.Errorf("yt-dlp produced no output file")
	}
	return artifact, nil
}

func looksUnavailable(output string) bool {
	for _, marker := range []string{
		"Video unavailable",
		"Private video",
		"This video is not available",
		"has been removed",
		"Sign in to confirm your age",
	} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// errorTailLines is how many trailing output lines are kept and reported
// when yt-dlp fails.
const errorTailLines = 5

type lineCollector struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func newLineCollector(max int) *lineCollector {
	return &lineCollector{max: max}
}

func (c *lineCollector) consume(reader io.Reader) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.mu.Lock()
		c.lines = append(c.lines, line)
		if len(c.lines) > c.max {
			c.lines = c.lines[len(c.lines)-c.max:]
		}
		c.mu.Unlock()
	}
}

func (c *lineCollector) tail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}
