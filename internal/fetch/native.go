package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"

	"github.com/zubairAhmed777/yt-downldr/internal/utils"
)

// NativeFetcher downloads with the youtube library directly. Progressive
// formats (audio+video in one stream) are saved as-is; when only adaptive
// streams exist, the best video and audio streams are fetched separately
// and handed to the muxer.
type NativeFetcher struct {
	dir    string
	muxer  Muxer
	client youtube.Client
}

// NewNativeFetcher builds a fetcher whose library calls go through the
// shared HTTP client wrapper, so the configured proxy and User-Agent
// apply to stream fetches.
func NewNativeFetcher(dir string, muxer Muxer, httpClient *utils.HTTPClient) *NativeFetcher {
	f := &NativeFetcher{dir: dir, muxer: muxer}
	if httpClient != nil {
		f.client = youtube.Client{HTTPClient: httpClient.StdClient()}
	}
	return f
}

func (f *NativeFetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, &UnavailableError{URL: url, Err: err}
	}

	// Request-scoped staging directory, so concurrent downloads of the
	// same video never collide.
	staging := filepath.Join(f.dir, uuid.NewString())
	if err := utils.EnsureDir(staging); err != nil {
		return nil, fmt.Errorf("error creating staging directory: %v", err)
	}
	artifact, err := f.fetchInto(ctx, video, staging)
	if err != nil {
		os.RemoveAll(staging)
		return nil, err
	}
	return artifact, nil
}

func (f *NativeFetcher) fetchInto(ctx context.Context, video *youtube.Video, staging string) (*Artifact, error) {
	name := utils.SanitizeFilename(video.Title)
	outputPath := filepath.Join(staging, name+".mp4")

	if format := bestProgressive(video.Formats); format != nil {
		log.Debug().Str("op", "fetch/native").Msgf("Using progressive format itag %d for %s", format.ItagNo, video.ID)
		size, err := f.saveStream(ctx, video, format, outputPath)
		if err != nil {
			return nil, err
		}
		return &Artifact{Path: outputPath, Title: video.Title, Size: size, Container: "mp4"}, nil
	}

	videoFormat := bestVideoOnly(video.Formats)
	audioFormat := bestAudioOnly(video.Formats)
	if videoFormat == nil || audioFormat == nil {
		return nil, &UnavailableError{URL: video.ID, Err: errors.New("no fetchable streams")}
	}
	log.Debug().Str("op", "fetch/native").
		Msgf("Using adaptive formats itag %d + %d for %s", videoFormat.ItagNo, audioFormat.ItagNo, video.ID)

	videoPath := filepath.Join(staging, "video"+extForMime(videoFormat.MimeType))
	audioPath := filepath.Join(staging, "audio"+extForMime(audioFormat.MimeType))
	if _, err := f.saveStream(ctx, video, videoFormat, videoPath); err != nil {
		return nil, err
	}
	if _, err := f.saveStream(ctx, video, audioFormat, audioPath); err != nil {
		return nil, err
	}
	// Titles like "video" sanitize to the intermediate stream names.
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
	}
	if err := f.muxer.Mux(ctx, videoPath, audioPath, outputPath); err != nil {
		return nil, err
	}
	os.Remove(videoPath)
	os.Remove(audioPath)

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("error checking muxed output: %v", err)
	}
	return &Artifact{Path: outputPath, Title: video.Title, Size: info.Size(), Container: "mp4"}, nil
}

func (f *NativeFetcher) saveStream(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) (int64, error) {
	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return 0, &UnavailableError{URL: video.ID, Err: err}
	}
	defer stream.Close()
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("error creating file: %v", err)
	}
	written, err := io.Copy(out, stream)
	if err != nil {
		out.Close()
		os.Remove(path)
		return 0, fmt.Errorf("error writing stream: %v", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("error closing file: %v", err)
	}
	return written, nil
}

// bestProgressive picks the highest-resolution MP4 format that already
// carries audio.
func bestProgressive(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels == 0 || !strings.HasPrefix(format.MimeType, "video/mp4") {
			continue
		}
		if best == nil || format.Height > best.Height {
			best = format
		}
	}
	return best
}

func bestVideoOnly(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels > 0 || !strings.HasPrefix(format.MimeType, "video/mp4") {
			continue
		}
		if best == nil || format.Height > best.Height ||
			(format.Height == best.Height && format.Bitrate > best.Bitrate) {
			best = format
		}
	}
	return best
}

func bestAudioOnly(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if !strings.HasPrefix(format.MimeType, "audio/mp4") {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}
	return best
}

func extForMime(mimeType string) string {
	mimeType = strings.SplitN(mimeType, ";", 2)[0]
	switch {
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".weba"
	case strings.HasPrefix(mimeType, "video/webm"):
		return ".webm"
	default:
		return ".mp4"
	}
}
