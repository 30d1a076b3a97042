package media

import (
	"image"

	"github.com/disintegration/imaging"
)

// Fit scales a pixel buffer so its longest edge is at most maxEdge,
// preserving aspect ratio. Lanczos resampling keeps downscale quality;
// sources already within the bound are returned at native size, never
// upscaled.
func Fit(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxEdge && bounds.Dy() <= maxEdge {
		return img
	}
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
}
