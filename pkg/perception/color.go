package perception

import (
	"image"
	"log/slog"
	"math"

	"github.com/teslashibe/go-roadsense/pkg/detection"
)

// Color is a traffic-light state.
type Color int

const (
	ColorRed Color = iota
	ColorYellow
	ColorGreen
)

// String returns the lowercase color name.
func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	default:
		return "unknown"
	}
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Code returns the one-letter code used in descriptors.
func (c Color) Code() string {
	switch c {
	case ColorRed:
		return "R"
	case ColorYellow:
		return "Y"
	case ColorGreen:
		return "G"
	default:
		return "?"
	}
}

// DefaultExpandScale widens detector boxes, which tend to crop the lit bulb.
const DefaultExpandScale = 1.5

// Pixel voting thresholds. Hue in degrees, saturation and value in 0-1.
const (
	minValue = 0.2

	redHueLow     = 340.0
	redHueHigh    = 20.0
	yellowHueHigh = 70.0
	greenHueHigh  = 160.0

	litSaturation   = 0.5
	litValue        = 0.3
	greenSaturation = 0.3
	greenValue      = 0.2
)

// RGBToHSV converts 8-bit RGB to hue in degrees [0, 360) and saturation
// and value in [0, 1].
func RGBToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	d := max - min

	v = max
	if max != 0 {
		s = d / max
	}

	if max == min {
		return 0, s, v
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}

	return h / 6 * 360, s, v
}

// votePixel returns the color a pixel counts toward, if any.
// The ranges share their boundary hues; earlier colors win.
func votePixel(h, s, v float64) (Color, bool) {
	if v < minValue {
		return 0, false
	}
	switch {
	case (h >= redHueLow || h <= redHueHigh) && s > litSaturation && v > litValue:
		return ColorRed, true
	case h >= redHueHigh && h <= yellowHueHigh && s > litSaturation && v > litValue:
		return ColorYellow, true
	case h >= yellowHueHigh && h <= greenHueHigh && s > greenSaturation && v > greenValue:
		return ColorGreen, true
	}
	return 0, false
}

// Votes counts pixels per color.
type Votes struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

// Add counts one pixel for c.
func (v *Votes) Add(c Color) {
	switch c {
	case ColorRed:
		v.Red++
	case ColorYellow:
		v.Yellow++
	case ColorGreen:
		v.Green++
	}
}

// Total returns the number of pixels that voted.
func (v Votes) Total() int {
	return v.Red + v.Yellow + v.Green
}

// Dominant returns the color with the most votes. Red wins ties and an
// empty count; yellow and green only take over on a strictly greater count.
func (v Votes) Dominant() Color {
	best, count := ColorRed, v.Red
	if v.Yellow > count {
		best, count = ColorYellow, v.Yellow
	}
	if v.Green > count {
		best = ColorGreen
	}
	return best
}

// Band is one horizontal third of a traffic-light region.
type Band struct {
	Role Color           `json:"role"` // Bulb expected in this band
	Rect image.Rectangle `json:"rect"` // Frame pixels, may be empty
}

// ExpandBox scales box around its center and clips it to a frame of the
// given size. Coordinates are floored before clipping. The result is empty
// when nothing of the scaled box lies inside the frame.
func ExpandBox(box detection.BBox, scale float64, frameW, frameH int) image.Rectangle {
	cx, cy := box.Center()
	w := box.W * scale
	h := box.H * scale

	x := max(0, int(math.Floor(cx-w/2)))
	y := max(0, int(math.Floor(cy-h/2)))
	rw := min(frameW-x, int(math.Floor(w)))
	rh := min(frameH-y, int(math.Floor(h)))

	if rw <= 0 || rh <= 0 {
		return image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x, y)}
	}
	return image.Rect(x, y, x+rw, y+rh)
}

// SplitBands cuts r into three equal-height bands, top to bottom, for the
// red, yellow and green bulbs. Rows left over by the integer division are
// not scanned.
func SplitBands(r image.Rectangle) [3]Band {
	third := r.Dy() / 3
	roles := [3]Color{ColorRed, ColorYellow, ColorGreen}

	var bands [3]Band
	for i, role := range roles {
		y0 := r.Min.Y + i*third
		bands[i] = Band{
			Role: role,
			Rect: image.Rectangle{
				Min: image.Pt(r.Min.X, y0),
				Max: image.Pt(r.Max.X, y0+third),
			},
		}
	}
	return bands
}

// ColorReading is the outcome of classifying one traffic light.
type ColorReading struct {
	Color        Color   `json:"color"`         // Dominant color
	Votes        Votes   `json:"votes"`         // Pixel counts over all bands
	Bands        [3]Band `json:"bands"`         // Scanned regions, for debug overlays
	RegionErrors int     `json:"region_errors"` // Bands that could not be read
}

// ColorClassifier decides a traffic light's color from the pixels around
// its box.
type ColorClassifier struct {
	Scale  float64
	logger *slog.Logger
}

// NewColorClassifier creates a classifier. A scale <= 0 uses DefaultExpandScale.
func NewColorClassifier(scale float64, logger *slog.Logger) *ColorClassifier {
	if scale <= 0 {
		scale = DefaultExpandScale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ColorClassifier{
		Scale:  scale,
		logger: logger.With("component", "perception.color"),
	}
}

// Classify votes every bright pixel in the three bands of the expanded box.
// A band that cannot be read adds no votes; classification always completes.
func (c *ColorClassifier) Classify(box detection.BBox, px PixelReader) ColorReading {
	fw, fh := px.Size()
	region := ExpandBox(box, c.Scale, fw, fh)

	reading := ColorReading{Bands: SplitBands(region)}

	for _, band := range reading.Bands {
		if band.Rect.Dx() <= 0 || band.Rect.Dy() <= 0 {
			continue
		}

		pix, err := px.ReadRGBA(band.Rect)
		if err != nil {
			reading.RegionErrors++
			c.logger.Warn("region read failed", "band", band.Role.String(), "rect", band.Rect.String(), "error", err)
			continue
		}

		for i := 0; i+3 < len(pix); i += 4 {
			h, s, v := RGBToHSV(pix[i], pix[i+1], pix[i+2])
			if color, ok := votePixel(h, s, v); ok {
				reading.Votes.Add(color)
			}
		}
	}

	reading.Color = reading.Votes.Dominant()
	return reading
}
