package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"classicphotos/internal/config"
	"classicphotos/internal/fetch"
	"classicphotos/internal/testsupport"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	return testsupport.EncodePNG(t, testsupport.SolidImage(3, color.RGBA{R: 200, A: 255}))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFetchHTTPReturnsBodyAndSendsUserAgent(t *testing.T) {
	payload := encodePNG(t)
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := fetch.New(fetch.Config{UserAgent: "tester/1", HTTPClient: server.Client()})
	data, err := client.Fetch(context.Background(), mustParse(t, server.URL+"/a.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "tester/1", gotAgent)
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := fetch.New(fetch.Config{}).Fetch(context.Background(), mustParse(t, server.URL))
	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, statusErr.Error(), "gone")
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer server.Close()

	_, err := fetch.New(fetch.Config{MaxBytes: 16}).Fetch(context.Background(), mustParse(t, server.URL))
	assert.ErrorIs(t, err, fetch.ErrTooLarge)
}

func TestFetchHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := fetch.New(fetch.Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), mustParse(t, server.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchFileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	payload := encodePNG(t)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	data, err := fetch.New(fetch.Config{}).Fetch(context.Background(), &url.URL{Scheme: "file", Path: path})
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = fetch.New(fetch.Config{}).Fetch(context.Background(), &url.URL{Scheme: "file", Path: path + ".missing"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	_, err := fetch.New(fetch.Config{}).Fetch(context.Background(), mustParse(t, "ftp://example.com/a.png"))
	assert.ErrorIs(t, err, fetch.ErrUnsupportedScheme)
}

func TestNewFromConfigUsesPipelineSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.MaxPayloadBytes = 8
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, cfg.Pipeline.UserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	_, err := fetch.NewFromConfig(&cfg).Fetch(context.Background(), mustParse(t, server.URL))
	assert.ErrorIs(t, err, fetch.ErrTooLarge)
}

func TestImageDecoderHandlesRegisteredFormats(t *testing.T) {
	decoder := fetch.ImageDecoder{}

	img, err := decoder.Decode(encodePNG(t))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	img, err = decoder.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestImageDecoderRejectsGarbage(t *testing.T) {
	decoder := fetch.ImageDecoder{}
	_, err := decoder.Decode(nil)
	assert.ErrorIs(t, err, fetch.ErrEmptyPayload)
	_, err = decoder.Decode([]byte("<html>not found</html>"))
	assert.Error(t, err)
}
