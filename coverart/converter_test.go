package coverart

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhkl-dev/freemusic/cache"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 6), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	assert.Equal(t, "http://p1.music.126.net/a.jpg?param=200y200", Thumbnail("http://p1.music.126.net/a.jpg", 200))
	assert.Equal(t, "not a url", Thumbnail("not a url", 200))
}

func TestConvertFromURLRendersAndMemoizes(t *testing.T) {
	data := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "200y200", r.URL.Query().Get("param"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	c := NewConverter(cache.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})), zerolog.Nop())

	art, err := c.ConvertFromURL(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.NotEqual(t, Placeholder(), art)
	assert.GreaterOrEqual(t, strings.Count(art, "\n"), DefaultHeight-1)

	again, err := c.ConvertFromURL(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, art, again)
	assert.Equal(t, int32(1), hits.Load())
}

func TestConvertFromURLFailuresReturnPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	c := NewConverter(nil, zerolog.Nop())

	art, err := c.ConvertFromURL(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Placeholder(), art)

	art, err = c.ConvertFromURL(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
	assert.Equal(t, Placeholder(), art)

	art, err = c.ConvertFromURL(context.Background(), srv.URL+"/garbage")
	assert.ErrorContains(t, err, "failed to decode")
	assert.Equal(t, Placeholder(), art)
}
