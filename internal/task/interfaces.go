package task

import (
	"context"
	"image"
	"net/url"
)

// Fetcher retrieves the raw bytes behind a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, source *url.URL) ([]byte, error)
}

// Decoder turns fetched bytes into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Transformer produces a filtered rendering of an image. Implementations
// should return promptly once ctx is cancelled.
type Transformer interface {
	Transform(ctx context.Context, img image.Image) (image.Image, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, source *url.URL) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, source *url.URL) ([]byte, error) {
	return f(ctx, source)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (image.Image, error)

func (f DecoderFunc) Decode(data []byte) (image.Image, error) {
	return f(data)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, img image.Image) (image.Image, error)

func (f TransformerFunc) Transform(ctx context.Context, img image.Image) (image.Image, error) {
	return f(ctx, img)
}
