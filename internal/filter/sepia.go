package filter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// DefaultIntensity is the sepia strength used when none is configured.
const DefaultIntensity = 0.8

// ErrNoImage is returned when Transform receives a nil image.
var ErrNoImage = errors.New("no image to filter")

// Sepia tints images toward sepia. Intensity 0 returns the original colours
// and 1 applies the full tone.
type Sepia struct {
	intensity float64
}

// NewSepia returns a Sepia filter. Intensity is clamped to [0, 1].
func NewSepia(intensity float64) *Sepia {
	return &Sepia{intensity: math.Max(0, math.Min(1, intensity))}
}

// Intensity returns the configured strength.
func (s *Sepia) Intensity() float64 { return s.intensity }

// Transform returns a new sepia-toned copy of img. It checks ctx between rows
// and returns ctx.Err() once cancelled.
func (s *Sepia) Transform(ctx context.Context, img image.Image) (image.Image, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("filter: empty bounds %v", bounds)
	}
	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetNRGBA(x, y, s.tone(c))
		}
	}
	return out, nil
}

func (s *Sepia) tone(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	sr := 0.393*r + 0.769*g + 0.189*b
	sg := 0.349*r + 0.686*g + 0.168*b
	sb := 0.272*r + 0.534*g + 0.131*b
	i := s.intensity
	return color.NRGBA{
		R: clamp(r*(1-i) + sr*i),
		G: clamp(g*(1-i) + sg*i),
		B: clamp(b*(1-i) + sb*i),
		A: c.A,
	}
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
