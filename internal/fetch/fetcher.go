package fetch

import (
	"context"
	"errors"
	"fmt"
	u "net/url"
	"strings"
)

// Artifact is one downloaded media file inside the shared download
// directory.
type Artifact struct {
	Path      string
	Title     string
	Size      int64
	Container string
}

// Fetcher resolves a video URL into a single local media file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Artifact, error)
}

// ErrInvalidURL marks client input that no fetcher will accept.
var ErrInvalidURL = errors.New("invalid or unsupported URL")

// UnavailableError reports that the target resolved but the video cannot
// be fetched (private, removed, region-blocked, age-restricted).
type UnavailableError struct {
	URL string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("video unavailable: %s: %v", e.URL, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// ValidateURL rejects empty strings, unparseable URLs and hosts that are
// not a known video site.
func ValidateURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	parsed, err := u.Parse(url)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	if !strings.Contains(url, "youtube.com/watch") &&
		!strings.Contains(url, "youtu.be/") &&
		!strings.Contains(url, "youtube.com/shorts") &&
		!strings.Contains(url, "music.youtube.com") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	return nil
}
