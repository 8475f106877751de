package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyPayload is returned when there is nothing to decode.
var ErrEmptyPayload = errors.New("empty payload")

// ImageDecoder decodes any registered image format: JPEG, PNG, GIF, BMP, TIFF, and WebP.
type ImageDecoder struct{}

// Decode returns the image encoded in data.
func (ImageDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if bounds := img.Bounds(); bounds.Empty() {
		return nil, fmt.Errorf("decode %s image: zero-sized bounds", format)
	}
	return img, nil
}
