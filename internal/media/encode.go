package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
)

const (
	// ContentTypeWebP is the MIME type of every pipeline output.
	ContentTypeWebP = "image/webp"

	// ThumbnailQuality is the WebP quality used for size-bucketed
	// thumbnails.
	ThumbnailQuality = 80

	// MediaQuality is the near-lossless WebP quality used for
	// native-resolution media output.
	MediaQuality = 95
)

// EncodeWebP serializes a pixel buffer as lossy WebP at the given
// quality (1-100).
func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("cannot encode %dx%d image", bounds.Dx(), bounds.Dy())
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	return buf.Bytes(), nil
}
