package imgcache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"repgen/archive"
	"repgen/config"
)

// largest image we are willing to download
const maxImageSize = 64 << 20

// Fetcher produces raw image bytes for a reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts ordinary function to Fetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// DefaultFetcher understands data URLs, http(s) locators, paths inside
// report bundle and local files.
type DefaultFetcher struct {
	client    *http.Client
	userAgent string
	token     config.SecretString
	bundle    *archive.Bundle
	baseDir   string
}

// NewFetcher creates fetcher. Bundle may be nil, relative local paths are
// resolved against baseDir.
func NewFetcher(cfg *config.ImagesConfig, bundle *archive.Bundle, baseDir string) *DefaultFetcher {
	return &DefaultFetcher{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		token:     cfg.AuthToken,
		bundle:    bundle,
		baseDir:   baseDir,
	}
}

func (f *DefaultFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if len(ref) == 0 {
		return nil, errors.New("empty image reference")
	}

	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return decodeDataURL(ref)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.download(ctx, ref)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("bad file URL: %w", err)
		}
		return f.readFile(u.Path)
	}

	if f.bundle != nil && f.bundle.Has(ref) {
		return f.bundle.ReadFile(ref)
	}
	return f.readFile(ref)
}

// readFile reads file under base directory (current one when not set).
// Absolute paths are accepted when they point inside it, anything escaping
// it, links included, is refused.
func (f *DefaultFetcher) readFile(name string) ([]byte, error) {
	base := f.baseDir
	if len(base) == 0 {
		base = "."
	}
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		absBase, err := filepath.Abs(base)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve image directory: %w", err)
		}
		if name, err = filepath.Rel(absBase, name); err != nil {
			return nil, fmt.Errorf("image file is outside of %s: %w", base, err)
		}
	}

	root, err := os.OpenRoot(base)
	if err != nil {
		return nil, fmt.Errorf("unable to open image directory: %w", err)
	}
	defer root.Close()

	data, err := root.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read image file: %w", err)
	}
	return data, nil
}

func (f *DefaultFetcher) download(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	if len(f.userAgent) > 0 {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if len(f.token) > 0 {
		req.Header.Set("Authorization", "Bearer "+f.token.Reveal())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read image: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image is larger than %d bytes", maxImageSize)
	}
	return data, nil
}

// decodeDataURL handles "data:[<mediatype>][;base64],<data>".
func decodeDataURL(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if !strings.HasSuffix(strings.ToLower(header), ";base64") {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		return []byte(data), nil
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("malformed base64 in data URL")
}
