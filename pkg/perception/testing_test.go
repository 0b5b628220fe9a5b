package perception

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	red   = color.RGBA{255, 0, 0, 255}
	amber = color.RGBA{255, 200, 0, 255}
	green = color.RGBA{0, 220, 60, 255}
)

// newFrame returns an opaque black frame.
func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{black}, image.Point{}, draw.Src)
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

// failingReader errors for one rectangle and delegates the rest.
type failingReader struct {
	PixelReader
	fail image.Rectangle
}

func (f failingReader) ReadRGBA(r image.Rectangle) ([]uint8, error) {
	if r == f.fail {
		return nil, ErrRegionUnreadable
	}
	return f.PixelReader.ReadRGBA(r)
}
