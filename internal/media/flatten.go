package media

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"thumbserver/internal/logging"

	"github.com/oov/psd"
)

// layer is the subset of document layer state compositing needs,
// decoupled from the PSD reader so the compositor is testable with
// synthetic layers. The image's bounds are in canvas coordinates.
type layer struct {
	name    string
	img     image.Image
	opacity uint8
	visible bool
	blend   psd.BlendMode
}

// FlattenPSD decodes a layered composite document and flattens its
// visible layers, bottom to top, into a single pixel buffer sized to
// the document canvas. Hidden layers (including layers inside hidden
// groups) contribute nothing to the output. Layers with blend modes
// other than normal are composited with normal alpha-over blending;
// this is a documented simplification, not a silent skip.
func FlattenPSD(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, _, err := psd.Decode(f, &psd.DecodeOptions{SkipMergedImage: true})
	if err != nil {
		return nil, fmt.Errorf("parse psd: %w", err)
	}

	canvas := doc.Config.Rect
	if canvas.Dx() <= 0 || canvas.Dy() <= 0 {
		return nil, fmt.Errorf("psd canvas has no area (%v)", canvas)
	}

	layers := collectLayers(doc.Layer, true)
	return composite(canvas, layers), nil
}

// collectLayers walks the layer tree bottom-to-top and returns leaf
// layers in compositing order. Group visibility gates every descendant.
func collectLayers(src []psd.Layer, parentVisible bool) []layer {
	var out []layer
	for i := range src {
		l := &src[i]
		visible := parentVisible && l.Visible()

		if len(l.Layer) > 0 {
			out = append(out, collectLayers(l.Layer, visible)...)
			continue
		}
		if !l.HasImage() {
			continue
		}
		out = append(out, layer{
			name:    l.Name,
			img:     l.Picker,
			opacity: l.Opacity,
			visible: visible,
			blend:   l.BlendMode,
		})
	}
	return out
}

// composite alpha-over blends the visible layers onto a transparent
// canvas. The result is translated so its origin is (0,0).
func composite(canvas image.Rectangle, layers []layer) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, canvas.Dx(), canvas.Dy()))

	for _, l := range layers {
		if !l.visible || l.opacity == 0 {
			continue
		}
		if l.blend != psd.BlendModeNormal {
			logging.Debug("flatten: layer %q blend mode %q composited as normal", l.name, l.blend)
		}

		bounds := l.img.Bounds()
		target := bounds.Intersect(canvas).Sub(canvas.Min)
		if target.Empty() {
			continue
		}
		src := bounds.Intersect(canvas).Min

		if l.opacity == 0xff {
			draw.Draw(dst, target, l.img, src, draw.Over)
			continue
		}
		mask := image.NewUniform(color.Alpha{A: l.opacity})
		draw.DrawMask(dst, target, l.img, src, mask, image.Point{}, draw.Over)
	}

	return dst
}
