package perception

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrRegionUnreadable is returned when a region cannot be read from the frame.
var ErrRegionUnreadable = errors.New("perception: region unreadable")

// PixelReader gives access to the current frame's pixels.
type PixelReader interface {
	// Size returns the frame dimensions. Regions are relative to (0, 0).
	Size() (width, height int)

	// ReadRGBA returns the region as packed 8-bit RGBA samples, row by row.
	ReadRGBA(r image.Rectangle) ([]uint8, error)
}

// ImagePixels reads regions out of an in-memory image.
type ImagePixels struct {
	img image.Image
}

// NewImagePixels wraps img. Coordinates passed to ReadRGBA are relative to
// the image's top-left corner even when its bounds do not start at zero.
func NewImagePixels(img image.Image) *ImagePixels {
	return &ImagePixels{img: img}
}

// Size returns the image dimensions.
func (p *ImagePixels) Size() (int, int) {
	if p.img == nil {
		return 0, 0
	}
	b := p.img.Bounds()
	return b.Dx(), b.Dy()
}

// ReadRGBA crops r out of the image.
func (p *ImagePixels) ReadRGBA(r image.Rectangle) ([]uint8, error) {
	if p.img == nil {
		return nil, fmt.Errorf("%w: no image", ErrRegionUnreadable)
	}
	w, h := p.Size()
	if r.Empty() || !r.In(image.Rect(0, 0, w, h)) {
		return nil, fmt.Errorf("%w: %v outside %dx%d", ErrRegionUnreadable, r, w, h)
	}

	crop := imaging.Crop(p.img, r.Add(p.img.Bounds().Min))
	return crop.Pix, nil
}

// Verify ImagePixels implements PixelReader at compile time.
var _ PixelReader = (*ImagePixels)(nil)
