package media

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/oov/psd"
)

// fillLayer builds a solid-color layer image whose bounds are expressed
// in canvas coordinates, matching what the document reader produces.
func fillLayer(rect image.Rectangle, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(rect)
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestCompositeHiddenLayerExcluded(t *testing.T) {
	canvas := image.Rect(0, 0, 16, 16)

	background := layer{
		name:    "background",
		img:     fillLayer(canvas, color.NRGBA{R: 255, A: 255}),
		opacity: 255,
		visible: true,
		blend:   psd.BlendModeNormal,
	}
	overlay := layer{
		name:    "overlay",
		img:     fillLayer(image.Rect(0, 0, 8, 8), color.NRGBA{B: 255, A: 255}),
		opacity: 255,
		visible: true,
		blend:   psd.BlendModeNormal,
	}

	withOverlay := composite(canvas, []layer{background, overlay})

	overlay.visible = false
	withoutOverlay := composite(canvas, []layer{background, overlay})

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			a := withOverlay.NRGBAAt(x, y)
			b := withoutOverlay.NRGBAAt(x, y)

			inOverlay := x < 8 && y < 8
			if inOverlay {
				if a == b {
					t.Fatalf("pixel (%d,%d) inside overlay region unchanged by visibility toggle", x, y)
				}
				if got := (color.NRGBA{B: 255, A: 255}); a != got {
					t.Fatalf("pixel (%d,%d) with overlay = %v, want %v", x, y, a, got)
				}
			} else if a != b {
				t.Fatalf("pixel (%d,%d) outside overlay region changed by visibility toggle: %v vs %v", x, y, a, b)
			}
			if want := (color.NRGBA{R: 255, A: 255}); b != want {
				t.Fatalf("pixel (%d,%d) without overlay = %v, want background %v", x, y, b, want)
			}
		}
	}
}

func TestCompositeBottomToTopOrder(t *testing.T) {
	canvas := image.Rect(0, 0, 4, 4)
	red := layer{img: fillLayer(canvas, color.NRGBA{R: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}
	green := layer{img: fillLayer(canvas, color.NRGBA{G: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}

	// Later layers sit on top.
	out := composite(canvas, []layer{red, green})
	if got := out.NRGBAAt(2, 2); got != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("top layer pixel = %v, want green", got)
	}
}

func TestCompositeLayerOpacity(t *testing.T) {
	canvas := image.Rect(0, 0, 4, 4)
	base := layer{img: fillLayer(canvas, color.NRGBA{R: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}
	half := layer{img: fillLayer(canvas, color.NRGBA{B: 255, A: 255}), opacity: 128, visible: true, blend: psd.BlendModeNormal}

	out := composite(canvas, []layer{base, half})
	got := out.NRGBAAt(1, 1)

	// Half-opacity blue over opaque red blends both channels.
	if got.B < 100 || got.B > 160 {
		t.Errorf("blue channel = %d, want roughly half-blended", got.B)
	}
	if got.R < 100 || got.R > 160 {
		t.Errorf("red channel = %d, want roughly half-blended", got.R)
	}
	if got.A != 255 {
		t.Errorf("alpha = %d, want 255", got.A)
	}
}

func TestCompositeZeroOpacitySkipped(t *testing.T) {
	canvas := image.Rect(0, 0, 4, 4)
	base := layer{img: fillLayer(canvas, color.NRGBA{R: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}
	ghost := layer{img: fillLayer(canvas, color.NRGBA{B: 255, A: 255}), opacity: 0, visible: true, blend: psd.BlendModeNormal}

	out := composite(canvas, []layer{base, ghost})
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel under zero-opacity layer = %v, want untouched base", got)
	}
}

func TestCompositeNonNormalBlendFallsBackToNormal(t *testing.T) {
	canvas := image.Rect(0, 0, 4, 4)
	base := layer{img: fillLayer(canvas, color.NRGBA{R: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}
	multiply := layer{img: fillLayer(canvas, color.NRGBA{G: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeMultiply}

	out := composite(canvas, []layer{base, multiply})
	// Composited as normal: the top layer simply wins.
	if got := out.NRGBAAt(3, 3); got != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("non-normal blend pixel = %v, want normal-blend result", got)
	}
}

func TestCompositeLayerOutsideCanvasClipped(t *testing.T) {
	canvas := image.Rect(0, 0, 8, 8)
	base := layer{img: fillLayer(canvas, color.NRGBA{R: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}
	// Layer partially outside the canvas; only the overlap may change.
	straddler := layer{img: fillLayer(image.Rect(6, 6, 12, 12), color.NRGBA{B: 255, A: 255}), opacity: 255, visible: true, blend: psd.BlendModeNormal}

	out := composite(canvas, []layer{base, straddler})

	if got := out.NRGBAAt(7, 7); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("overlap pixel = %v, want straddler color", got)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("far pixel = %v, want base color", got)
	}
}

func TestFlattenPSDErrors(t *testing.T) {
	dir := t.TempDir()

	// Truncated/corrupt document data.
	corrupt := filepath.Join(dir, "corrupt.psd")
	if err := os.WriteFile(corrupt, []byte("8BPS\x00\x01not a real document"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := FlattenPSD(corrupt); err == nil {
		t.Error("FlattenPSD(corrupt) returned nil error")
	}

	if _, err := FlattenPSD(filepath.Join(dir, "missing.psd")); err == nil {
		t.Error("FlattenPSD(missing) returned nil error")
	}
}
