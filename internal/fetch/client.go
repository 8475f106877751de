package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"classicphotos/internal/config"
)

const (
	defaultUserAgent   = "classicphotos/dev"
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBytes    = 32 << 20
)

// ErrTooLarge is returned when a payload exceeds the configured limit.
var ErrTooLarge = errors.New("payload exceeds size limit")

// ErrUnsupportedScheme is returned for URLs the client cannot retrieve.
var ErrUnsupportedScheme = errors.New("unsupported url scheme")

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// Config describes the fetch client configuration.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxBytes   int64
	HTTPClient *http.Client
}

// Client downloads photo payloads.
type Client struct {
	userAgent string
	timeout   time.Duration
	maxBytes  int64
	http      *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) *Client {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		userAgent: userAgent,
		timeout:   timeout,
		maxBytes:  maxBytes,
		http:      client,
	}
}

// NewFromConfig builds a Client from the pipeline section of cfg.
func NewFromConfig(cfg *config.Config) *Client {
	if cfg == nil {
		return New(Config{})
	}
	return New(Config{
		UserAgent: cfg.Pipeline.UserAgent,
		Timeout:   cfg.FetchTimeoutDuration(),
		MaxBytes:  cfg.Pipeline.MaxPayloadBytes,
	})
}

// Fetch returns the bytes behind source. http, https, and file URLs are supported.
func (c *Client) Fetch(ctx context.Context, source *url.URL) ([]byte, error) {
	if source == nil {
		return nil, errors.New("fetch: nil url")
	}
	switch strings.ToLower(source.Scheme) {
	case "http", "https":
		return c.fetchHTTP(ctx, source)
	case "file":
		return c.fetchFile(ctx, source)
	default:
		return nil, fmt.Errorf("fetch %s: %w %q", source.Redacted(), ErrUnsupportedScheme, source.Scheme)
	}
}

func (c *Client) fetchHTTP(ctx context.Context, source *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w (%d bytes)", source.Redacted(), ErrTooLarge, resp.ContentLength)
	}
	return c.readLimited(resp.Body)
}

func (c *Client) fetchFile(ctx context.Context, source *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := source.Path
	if path == "" {
		path = source.Opaque
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer file.Close()
	return c.readLimited(file)
}

func (c *Client) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("fetch: %w (limit %d bytes)", ErrTooLarge, c.maxBytes)
	}
	return data, nil
}
