package photos

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// PlaceholderSize is the edge length of generated placeholder images.
const PlaceholderSize = 64

var (
	placeholderOnce sync.Once
	placeholderImg  *image.RGBA
	failureOnce     sync.Once
	failureImg      *image.RGBA
)

// Placeholder returns the shared image shown before a photo has downloaded.
// Callers must not mutate it.
func Placeholder() image.Image {
	placeholderOnce.Do(func() {
		placeholderImg = solid(color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff})
	})
	return placeholderImg
}

// FailurePlaceholder returns the shared image shown for a photo that failed to load.
func FailurePlaceholder() image.Image {
	failureOnce.Do(func() {
		img := solid(color.RGBA{R: 0xf4, G: 0xe4, B: 0xe4, A: 0xff})
		mark := color.RGBA{R: 0xc0, G: 0x20, B: 0x20, A: 0xff}
		for i := 8; i < PlaceholderSize-8; i++ {
			img.SetRGBA(i, i, mark)
			img.SetRGBA(PlaceholderSize-1-i, i, mark)
		}
		failureImg = img
	})
	return failureImg
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
