package fetch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// FallbackFetcher tries the native library first and falls back to
// yt-dlp on any failure other than bad input. yt-dlp copes with DASH
// manifests and throttling that the native client does not.
type FallbackFetcher struct {
	primary   Fetcher
	secondary Fetcher
}

func NewFallbackFetcher(primary, secondary Fetcher) *FallbackFetcher {
	return &FallbackFetcher{primary: primary, secondary: secondary}
}

func (f *FallbackFetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	artifact, err := f.primary.Fetch(ctx, url)
	if err == nil {
		return artifact, nil
	}
	if errors.Is(err, ErrInvalidURL) || ctx.Err() != nil {
		return nil, err
	}
	log.Warn().Str("op", "fetch/fallback").Err(err).Msgf("Primary fetch failed for %s, trying yt-dlp", url)
	return f.secondary.Fetch(ctx, url)
}
