package picture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/render"
)

func blank(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestAnnotateDrawsSegment(t *testing.T) {
	src := blank(200, 100)
	lines := []measurement.MeasurementLine2D{{
		ID:     "1",
		Label:  "1.00 m",
		Bounds: measurement.Bounds{Width: 200, Height: 100},
		Node1:  &measurement.Node2D{X: 20, Y: 80},
		Node2:  &measurement.Node2D{X: 180, Y: 80},
	}}

	out := Annotate(src, lines)

	if got := out.RGBAAt(60, 80); got != render.ColorMeasurement {
		t.Errorf("segment failed: expected %v, got %v", render.ColorMeasurement, got)
	}
	if got := out.RGBAAt(20, 80); got != render.ColorMeasurement {
		t.Errorf("endpoint marker failed: expected %v, got %v", render.ColorMeasurement, got)
	}
	if got := out.RGBAAt(10, 10); got != (color.RGBA{}) {
		t.Errorf("background should be untouched, got %v", got)
	}
	if src.RGBAAt(60, 80) != (color.RGBA{}) {
		t.Error("Annotate must not modify the source image")
	}
}

func TestAnnotateSkipsHiddenLines(t *testing.T) {
	out := Annotate(blank(50, 50), []measurement.MeasurementLine2D{{ID: "1", Label: "1.00 m"}})
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("expected untouched image, pixel byte %d is %d", i, v)
		}
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := WritePNG(path, blank(10, 10)); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("size failed: expected 10, got %d", img.Bounds().Dx())
	}
}

func TestWritePNGExportFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "shot.png")

	err := WritePNG(path, blank(10, 10))
	if !errors.Is(err, measurement.ErrExportFailed) {
		t.Errorf("expected ErrExportFailed, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the I/O error to be wrapped, got %v", err)
	}
}
