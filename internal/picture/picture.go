// Package picture annotates snapshots with projected measurements and
// exports them as PNG.
package picture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/projection"
	"github.com/philipparndt/armeasure/internal/render"
)

const (
	lineWidth    = 3.0
	markerRadius = 5.0
	labelPadding = 3
)

// Annotate copies img and draws every visible segment, endpoint and label
// onto the copy. Lines with a single visible node get a marker and a label only.
func Annotate(img image.Image, lines []measurement.MeasurementLine2D) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	for _, l := range lines {
		if l.Node1 != nil && l.Node2 != nil {
			strokeLine(out, l.Node1.X, l.Node1.Y, l.Node2.X, l.Node2.Y, lineWidth, render.ColorMeasurement)
		}
		for _, n := range []*measurement.Node2D{l.Node1, l.Node2} {
			if n != nil {
				fillCircle(out, n.X, n.Y, markerRadius, render.AlignmentColor(n.A))
			}
		}
		if pos, ok := projection.LabelPosition(l); ok {
			drawLabel(out, pos.X, pos.Y, l.Label)
		}
	}
	return out
}

// strokeLine fills the quad around a segment
func strokeLine(dst *image.RGBA, x1, y1, x2, y2, width float64, col color.Color) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := -dy / length * width / 2
	ny := dx / length * width / 2

	r := newRasterizer(dst)
	r.MoveTo(float32(x1+nx), float32(y1+ny))
	r.LineTo(float32(x2+nx), float32(y2+ny))
	r.LineTo(float32(x2-nx), float32(y2-ny))
	r.LineTo(float32(x1-nx), float32(y1-ny))
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), &image.Uniform{col}, image.Point{})
}

// fillCircle approximates a disc with a polygon
func fillCircle(dst *image.RGBA, cx, cy, radius float64, col color.Color) {
	const segments = 24

	r := newRasterizer(dst)
	r.MoveTo(float32(cx+radius), float32(cy))
	for i := 1; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		r.LineTo(float32(cx+radius*math.Cos(a)), float32(cy+radius*math.Sin(a)))
	}
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), &image.Uniform{col}, image.Point{})
}

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

// drawLabel writes text centred on (x, y) over a light box
func drawLabel(dst *image.RGBA, x, y float64, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}

	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	left := int(math.Round(x)) - width/2
	top := int(math.Round(y)) - height/2
	box := image.Rect(left-labelPadding, top-labelPadding, left+width+labelPadding, top+height+labelPadding)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe6}), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(left),
		Y: fixed.I(top) + metrics.Ascent,
	}
	d.DrawString(text)
}

// WritePNG encodes img to path. Failures wrap ErrExportFailed.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", measurement.ErrExportFailed, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", measurement.ErrExportFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", measurement.ErrExportFailed, err)
	}
	return nil
}
