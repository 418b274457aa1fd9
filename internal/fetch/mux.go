package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// Muxer combines separate video and audio files into one container.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// MuxerFunc adapts a function to the Muxer interface.
type MuxerFunc func(ctx context.Context, videoPath, audioPath, outputPath string) error

func (f MuxerFunc) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	return f(ctx, videoPath, audioPath, outputPath)
}

type FFmpegMuxer struct {
	ffmpegPath string
}

func NewFFmpegMuxer() (*FFmpegMuxer, error) {
	path, err := EnsureFFmpeg()
	if err != nil {
		return nil, err
	}
	return &FFmpegMuxer{ffmpegPath: path}, nil
}

// Mux remuxes the streams without re-encoding. A partial output file is
// removed on failure.
func (m *FFmpegMuxer) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	log.Debug().Str("op", "fetch/mux").Msgf("Executing ffmpeg command: %s", cmd.String())
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		log.Error().Str("op", "fetch/mux").Err(err).Msg("ffmpeg mux failed")
		return fmt.Errorf("ffmpeg failed: %v: %s", err, tailLines(string(out), 5))
	}
	return nil
}

func EnsureFFmpeg() (string, error) {
	path, err := exec.LookPath("ffmpeg")
	if err == nil {
		return path, nil
	}
	execDir, err := os.Executable()
	if err == nil {
		ffmpegPath := filepath.Join(filepath.Dir(execDir), "ffmpeg")
		if runtime.GOOS == "windows" {
			ffmpegPath += ".exe"
		}
		if _, err := os.Stat(ffmpegPath); err == nil {
			return ffmpegPath, nil
		}
	}
	return "", fmt.Errorf("ffmpeg not found in PATH, please install manually")
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
