// Package overlay draws detections and advisory state onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/perception"
	"github.com/teslashibe/go-roadsense/pkg/pipeline"
)

var (
	colorBox    = color.RGBA{0, 255, 255, 255}
	colorRed    = color.RGBA{255, 0, 0, 255}
	colorYellow = color.RGBA{255, 255, 0, 255}
	colorGreen  = color.RGBA{0, 255, 0, 255}
	colorText   = color.RGBA{255, 255, 255, 255}
	colorShade  = color.RGBA{0, 0, 0, 255}
)

// Config controls what is drawn.
type Config struct {
	Quality   int  // JPEG quality 1-100
	DrawBands bool // Outline the traffic-light bands that were scanned
	DrawHUD   bool // Print the display lines in the top-left corner
}

// DefaultConfig draws everything at quality 70.
func DefaultConfig() Config {
	return Config{Quality: 70, DrawBands: true, DrawHUD: true}
}

// Renderer turns a report into an annotated JPEG.
type Renderer struct {
	config Config
}

// NewRenderer creates a renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultConfig().Quality
	}
	return &Renderer{config: cfg}
}

// Render draws r onto a copy of its frame and encodes it as JPEG.
func (rd *Renderer) Render(r *pipeline.Report) ([]byte, error) {
	if r == nil || r.Frame == nil {
		return nil, fmt.Errorf("overlay: report has no frame")
	}

	mat, err := gocv.ImageToMatRGB(r.Frame)
	if err != nil {
		return nil, fmt.Errorf("overlay: convert frame: %w", err)
	}
	defer mat.Close()

	for _, in := range r.Interpretations {
		if in.Ignored {
			continue
		}
		rd.drawDetection(&mat, in)
	}

	if rd.config.DrawHUD {
		rd.drawHUD(&mat, r)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, rd.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("overlay: encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (rd *Renderer) drawDetection(mat *gocv.Mat, in perception.Interpretation) {
	box := in.Detection.BBox
	rect := image.Rect(
		int(math.Round(box.X)),
		int(math.Round(box.Y)),
		int(math.Round(box.X+box.W)),
		int(math.Round(box.Y+box.H)),
	)
	gocv.Rectangle(mat, rect, colorBox, 2)

	// Label sits above the box unless that would leave the frame
	y := rect.Min.Y - 5
	if rect.Min.Y <= 10 {
		y = 10
	}
	gocv.PutText(mat, in.Descriptor, image.Pt(rect.Min.X, y), gocv.FontHersheySimplex, 0.5, colorBox, 1)

	if rd.config.DrawBands && in.Light != nil {
		for _, band := range in.Light.Bands {
			if band.Rect.Empty() {
				continue
			}
			gocv.Rectangle(mat, band.Rect, bandColor(band.Role), 2)
		}
	}
}

// hudLines returns the text drawn in the corner. Hershey fonts only cover
// ASCII, so the action line uses the action name rather than the phrase.
func hudLines(r *pipeline.Report) []string {
	return []string{r.Display.Objects, r.Display.Distance, "Action: " + r.State.Action.String()}
}

func (rd *Renderer) drawHUD(mat *gocv.Mat, r *pipeline.Report) {
	lines := hudLines(r)

	accent := colorGreen
	if r.State.Action == advisory.ActionStop {
		accent = colorRed
	}

	for i, line := range lines {
		pt := image.Pt(10, 22+i*20)
		c := colorText
		if i == len(lines)-1 {
			c = accent
		}
		// Dark outline keeps text legible on bright scenes
		gocv.PutText(mat, line, pt, gocv.FontHersheySimplex, 0.55, colorShade, 3)
		gocv.PutText(mat, line, pt, gocv.FontHersheySimplex, 0.55, c, 1)
	}
}

func bandColor(c perception.Color) color.RGBA {
	switch c {
	case perception.ColorYellow:
		return colorYellow
	case perception.ColorGreen:
		return colorGreen
	default:
		return colorRed
	}
}
