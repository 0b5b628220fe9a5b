package perception

import (
	"image"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/teslashibe/go-roadsense/pkg/detection"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 120, 1, 1},
		{"blue", 0, 0, 255, 240, 1, 1},
		{"yellow", 255, 255, 0, 60, 1, 1},
		{"magenta", 255, 0, 255, 300, 1, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 128, 128, 128, 0, 0, 128.0 / 255},
		{"rose wraps", 255, 0, 128, 360 - 128.0/255*60, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.h) > 1e-9 || math.Abs(s-tt.s) > 1e-9 || math.Abs(v-tt.v) > 1e-9 {
				t.Errorf("RGBToHSV(%d,%d,%d) = (%v,%v,%v), want (%v,%v,%v)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}

func TestVotePixel(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v float64
		want    Color
		wantOK  bool
	}{
		{"red low hue", 5, 0.9, 0.9, ColorRed, true},
		{"red high hue", 350, 0.9, 0.9, ColorRed, true},
		{"hue 20 is red", 20, 0.9, 0.9, ColorRed, true},
		{"amber", 45, 0.9, 0.9, ColorYellow, true},
		{"hue 70 is yellow", 70, 0.9, 0.9, ColorYellow, true},
		{"hue 70 unsaturated is green", 70, 0.4, 0.9, ColorGreen, true},
		{"green", 130, 0.4, 0.25, ColorGreen, true},
		{"too dark", 130, 0.9, 0.19, 0, false},
		{"dim red", 0, 0.9, 0.25, 0, false},
		{"washed out red", 0, 0.4, 0.9, 0, false},
		{"blue", 220, 0.9, 0.9, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := votePixel(tt.h, tt.s, tt.v)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("votePixel(%v,%v,%v) = %v,%v want %v,%v", tt.h, tt.s, tt.v, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVotesDominant(t *testing.T) {
	tests := []struct {
		votes Votes
		want  Color
	}{
		{Votes{}, ColorRed},
		{Votes{Red: 5, Yellow: 5}, ColorRed},
		{Votes{Red: 5, Green: 5}, ColorRed},
		{Votes{Red: 1, Yellow: 5, Green: 5}, ColorYellow},
		{Votes{Yellow: 3, Green: 4}, ColorGreen},
		{Votes{Red: 9, Yellow: 3, Green: 4}, ColorRed},
	}
	for _, tt := range tests {
		if got := tt.votes.Dominant(); got != tt.want {
			t.Errorf("%+v.Dominant() = %v, want %v", tt.votes, got, tt.want)
		}
	}
}

func TestColorCodes(t *testing.T) {
	if ColorRed.Code() != "R" || ColorYellow.Code() != "Y" || ColorGreen.Code() != "G" {
		t.Error("unexpected color codes")
	}
	if ColorGreen.String() != "green" {
		t.Errorf("ColorGreen.String() = %q", ColorGreen.String())
	}
}

func TestExpandBox(t *testing.T) {
	tests := []struct {
		name string
		box  detection.BBox
		want image.Rectangle
	}{
		{"centered", detection.BBox{X: 100, Y: 50, W: 40, H: 90}, image.Rect(90, 27, 150, 162)},
		{"clipped at origin", detection.BBox{X: 0, Y: 0, W: 10, H: 10}, image.Rect(0, 0, 15, 15)},
		{"clipped at far edge", detection.BBox{X: 620, Y: 460, W: 20, H: 20}, image.Rect(615, 455, 640, 480)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandBox(tt.box, 1.5, 640, 480)
			if got != tt.want {
				t.Errorf("ExpandBox() = %v, want %v", got, tt.want)
			}
		})
	}

	if r := ExpandBox(detection.BBox{X: 700, Y: 10, W: 10, H: 10}, 1.5, 640, 480); !r.Empty() {
		t.Errorf("box outside frame should expand to empty, got %v", r)
	}
}

func TestSplitBands(t *testing.T) {
	bands := SplitBands(image.Rect(90, 27, 150, 162))

	want := []image.Rectangle{
		image.Rect(90, 27, 150, 72),
		image.Rect(90, 72, 150, 117),
		image.Rect(90, 117, 150, 162),
	}
	roles := []Color{ColorRed, ColorYellow, ColorGreen}
	for i, b := range bands {
		if b.Rect != want[i] || b.Role != roles[i] {
			t.Errorf("band %d = %v %v, want %v %v", i, b.Role, b.Rect, roles[i], want[i])
		}
	}

	short := SplitBands(image.Rect(0, 0, 10, 2))
	for i, b := range short {
		if !b.Rect.Empty() {
			t.Errorf("band %d of a 2px region should be empty, got %v", i, b.Rect)
		}
	}
}

func lightBox() detection.BBox {
	return detection.BBox{X: 100, Y: 50, W: 40, H: 90}
}

func TestClassify(t *testing.T) {
	c := NewColorClassifier(0, quiet)
	bands := SplitBands(ExpandBox(lightBox(), DefaultExpandScale, 640, 480))

	tests := []struct {
		name  string
		paint func(img *image.RGBA)
		want  Color
	}{
		{"red top band", func(img *image.RGBA) { fill(img, bands[0].Rect, red) }, ColorRed},
		{"amber middle band", func(img *image.RGBA) { fill(img, bands[1].Rect, amber) }, ColorYellow},
		{"green bottom band", func(img *image.RGBA) { fill(img, bands[2].Rect, green) }, ColorGreen},
		{"all dark defaults to red", func(img *image.RGBA) {}, ColorRed},
		{"green outvotes small red", func(img *image.RGBA) {
			fill(img, bands[2].Rect, green)
			fill(img, image.Rect(100, 30, 110, 40), red)
		}, ColorGreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := newFrame(640, 480)
			tt.paint(img)
			got := c.Classify(lightBox(), NewImagePixels(img))
			if got.Color != tt.want {
				t.Errorf("Classify() = %v (votes %+v), want %v", got.Color, got.Votes, tt.want)
			}
			if got.RegionErrors != 0 {
				t.Errorf("RegionErrors = %d, want 0", got.RegionErrors)
			}
		})
	}
}

func TestClassifyCountsEveryBandPixel(t *testing.T) {
	img := newFrame(640, 480)
	bands := SplitBands(ExpandBox(lightBox(), DefaultExpandScale, 640, 480))
	fill(img, bands[2].Rect, green)

	got := NewColorClassifier(0, quiet).Classify(lightBox(), NewImagePixels(img))
	if want := 60 * 45; got.Votes.Green != want {
		t.Errorf("green votes = %d, want %d", got.Votes.Green, want)
	}
	if got.Bands != bands {
		t.Errorf("Bands = %v, want %v", got.Bands, bands)
	}
}

func TestClassifyTranslationInvariant(t *testing.T) {
	c := NewColorClassifier(0, quiet)

	paint := func(dx, dy int) ColorReading {
		img := newFrame(640, 480)
		box := lightBox()
		box.X += float64(dx)
		box.Y += float64(dy)
		bands := SplitBands(ExpandBox(box, DefaultExpandScale, 640, 480))
		fill(img, bands[0].Rect.Inset(5), red)
		fill(img, bands[2].Rect, green)
		return c.Classify(box, NewImagePixels(img))
	}

	base := paint(0, 0)
	for _, off := range []image.Point{{10, 0}, {0, 33}, {250, 200}, {-60, -10}} {
		got := paint(off.X, off.Y)
		if got.Votes != base.Votes || got.Color != base.Color {
			t.Errorf("offset %v: %v %+v, want %v %+v", off, got.Color, got.Votes, base.Color, base.Votes)
		}
	}
}

func TestClassifyToleratesUnreadableBand(t *testing.T) {
	img := newFrame(640, 480)
	bands := SplitBands(ExpandBox(lightBox(), DefaultExpandScale, 640, 480))
	fill(img, bands[0].Rect, red)
	fill(img, bands[2].Rect, green)

	px := failingReader{PixelReader: NewImagePixels(img), fail: bands[0].Rect}
	got := NewColorClassifier(0, quiet).Classify(lightBox(), px)

	if got.RegionErrors != 1 {
		t.Errorf("RegionErrors = %d, want 1", got.RegionErrors)
	}
	if got.Votes.Red != 0 {
		t.Errorf("unreadable band contributed %d votes", got.Votes.Red)
	}
	if got.Color != ColorGreen {
		t.Errorf("Color = %v, want green from the readable bands", got.Color)
	}
}

func TestClassifyOutsideFrame(t *testing.T) {
	img := newFrame(640, 480)
	got := NewColorClassifier(0, quiet).Classify(detection.BBox{X: 800, Y: 600, W: 20, H: 40}, NewImagePixels(img))
	if got.Votes.Total() != 0 || got.Color != ColorRed {
		t.Errorf("Classify() outside frame = %v %+v", got.Color, got.Votes)
	}
}
