package infra

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// maxMediaDimension keeps downloaded images within Telegram photo limits.
const maxMediaDimension = 640

// MediaFetcher downloads and normalizes media attachments configured as
// URLs, caching the processed file on disk so repeated dispatch cycles for
// the same destination reuse one download.
type MediaFetcher struct {
	basePath string
	client   *http.Client
}

// NewMediaFetcher creates a MediaFetcher rooted at dir. An empty dir places
// the cache under the user config directory.
func NewMediaFetcher(dir string) (*MediaFetcher, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve media cache path: %w", err)
		}
		dir = filepath.Join(configDir, "tonbuybot", "media")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &MediaFetcher{
		basePath: dir,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Fetch downloads the image at url, resizes it to fit chat photo
// constraints, and returns the local file path. key names the cache entry
// (typically the destination's token address). The filename also carries a
// hash of the url, so a destination that swaps its media URL gets a fresh
// download instead of the stale cached file.
func (f *MediaFetcher) Fetch(ctx context.Context, key, url string) (string, error) {
	safeKey := sanitizeKey(key)
	if safeKey == "" {
		return "", fmt.Errorf("invalid media key: %s", key)
	}

	sum := sha256.Sum256([]byte(url))
	filePath := filepath.Join(f.basePath, fmt.Sprintf("%s-%x.png", safeKey, sum[:4]))
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // cache hit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Fit preserves aspect ratio; only oversized images shrink.
	resized := imaging.Fit(srcImg, maxMediaDimension, maxMediaDimension, imaging.Lanczos)

	if err := imaging.Save(resized, filePath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filePath, nil
}

func sanitizeKey(key string) string {
	res := make([]rune, 0, len(key))
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			res = append(res, r)
		}
	}
	return string(res)
}
