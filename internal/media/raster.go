package media

import (
	"fmt"
	"image"
	"os"

	"thumbserver/internal/logging"

	"github.com/disintegration/imaging"

	// Register decoders for the formats the raster path supports.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the maximum width or height decoded at full
	// resolution. Larger sources are shrunk during load.
	MaxImageDimension = 4096

	// MaxImagePixels bounds the total decoded pixel count. A 20MP RGBA
	// frame uses roughly 80MB.
	MaxImagePixels = 20_000_000
)

// DecodeRaster decodes a bitmap image into a pixel buffer, applying
// EXIF auto-orientation. Sources exceeding the dimension or pixel
// limits are downscaled during load to bound memory use.
func DecodeRaster(path string) (image.Image, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("raster: no dimensions for %s (%v), decoding directly", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dims.Width, dims.Height
	if width <= MaxImageDimension && height <= MaxImageDimension && width*height <= MaxImagePixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	targetWidth, targetHeight := constrainDimensions(width, height, MaxImageDimension, MaxImagePixels)
	logging.Info("raster: constraining %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// DecodeRasterFit decodes a bitmap and pre-shrinks it toward a bounding
// edge. When libvips is available the shrink happens at decode time,
// which avoids materializing the full-resolution buffer; otherwise the
// pure-Go path decodes under the global constraints and the resize
// stage does the rest.
func DecodeRasterFit(path string, maxEdge int) (image.Image, error) {
	if maxEdge > 0 && IsVipsAvailable() {
		img, err := loadImageWithVips(path, maxEdge)
		if err == nil {
			return img, nil
		}
		logging.Debug("raster: vips load failed for %s (%v), falling back", path, err)
	}
	return DecodeRaster(path)
}

// constrainDimensions scales width x height down to satisfy both the
// per-edge and total-pixel limits, preserving aspect ratio.
func constrainDimensions(width, height, maxDimension, maxPixels int) (int, int) {
	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding
// the image.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}
