// Package coverart renders album covers as ASCII for the now-playing panel.
package coverart

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qeesung/image2ascii/convert"
	"github.com/rs/zerolog"

	"github.com/yhkl-dev/freemusic/cache"
)

const (
	DefaultWidth  = 25
	DefaultHeight = 12

	// renders rarely change; keep them long
	renderTTL = 7 * 24 * time.Hour
)

// Converter downloads covers and turns them into ASCII art
type Converter struct {
	httpClient *http.Client
	converter  *convert.ImageConverter
	cache      cache.Cache
	width      int
	height     int
	log        zerolog.Logger
}

// NewConverter creates a converter memoizing renders in c; a nil c disables memoization
func NewConverter(c cache.Cache, logger zerolog.Logger) *Converter {
	if c == nil {
		c = cache.Nop{}
	}
	return &Converter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		converter:  convert.NewImageConverter(),
		cache:      c,
		width:      DefaultWidth,
		height:     DefaultHeight,
		log:        logger.With().Str("component", "coverart").Logger(),
	}
}

// Thumbnail asks the image CDN for a small square instead of the full-size cover
func Thumbnail(rawURL string, size int) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	q := u.Query()
	q.Set("param", fmt.Sprintf("%dy%d", size, size))
	u.RawQuery = q.Encode()
	return u.String()
}

// ConvertFromURL downloads and converts an image URL to ASCII art. On any failure
// the placeholder is returned together with the error.
func (c *Converter) ConvertFromURL(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return Placeholder(), nil
	}

	key := cache.CoverKey(rawURL, c.width, c.height)
	if art, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return art, nil
	}

	art, err := c.render(ctx, Thumbnail(rawURL, 8*c.width))
	if err != nil {
		return Placeholder(), err
	}
	if err := c.cache.Set(ctx, key, art, renderTTL); err != nil {
		c.log.Debug().Err(err).Msg("cache cover render")
	}
	return art, nil
}

func (c *Converter) render(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}

	opts := convert.DefaultOptions
	opts.FixedWidth = c.width
	opts.FixedHeight = c.height
	opts.Colored = false // tview cannot render the ANSI escapes
	return c.converter.Image2ASCIIString(img, &opts), nil
}

// Placeholder is shown when no cover is available
func Placeholder() string {
	lines := []string{
		"┌───────────────────────┐",
		"│                       │",
		"│                       │",
		"│        ♫  ♪  ♫        │",
		"│       No  Cover       │",
		"│        ♫  ♪  ♫        │",
		"│                       │",
		"│                       │",
		"└───────────────────────┘",
	}
	return "[darkgray]" + strings.Join(lines, "\n[darkgray]")
}
