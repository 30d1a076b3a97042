package pipeline

import "time"

// Mode selects between size-bucketed thumbnail output and
// native-resolution media output.
type Mode string

const (
	// ModeThumbnail produces output bounded by a size bucket.
	ModeThumbnail Mode = "thumbnail"
	// ModeMedia produces output at native resolution.
	ModeMedia Mode = "media"
)

// SizeBucket is a named output size tier. Each bucket maps to a fixed
// maximum edge length; resizing never exceeds it.
type SizeBucket string

const (
	// SizeSmall caps the longest output edge at 150px.
	SizeSmall SizeBucket = "small"
	// SizeMedium caps the longest output edge at 400px.
	SizeMedium SizeBucket = "medium"
	// SizeLarge caps the longest output edge at 1200px.
	SizeLarge SizeBucket = "large"
)

// bucketEdges maps each bucket to its maximum output edge in pixels.
var bucketEdges = map[SizeBucket]int{
	SizeSmall:  150,
	SizeMedium: 400,
	SizeLarge:  1200,
}

// MaxEdge returns the bucket's maximum output edge length in pixels.
func (b SizeBucket) MaxEdge() int {
	return bucketEdges[b]
}

// ParseSizeBucket converts a query parameter value to a SizeBucket.
// The empty string defaults to medium; anything else unknown is an
// invalid-parameter error.
func ParseSizeBucket(s string) (SizeBucket, error) {
	switch s {
	case "":
		return SizeMedium, nil
	case string(SizeSmall):
		return SizeSmall, nil
	case string(SizeMedium):
		return SizeMedium, nil
	case string(SizeLarge):
		return SizeLarge, nil
	}
	return "", invalidParameterError("unknown size bucket %q", s)
}

// Request describes one thumbnail generation. Path must already be
// resolved to an absolute location inside the media directory.
type Request struct {
	Path string
	Mode Mode
	Size SizeBucket
}

// Result is the outcome of a successful pipeline run. ModTime is the
// asset's filesystem modification time captured before decoding, so it
// is stable however long the pipeline takes. Nothing in a Result is
// retained by the pipeline after it returns.
type Result struct {
	Data        []byte
	ContentType string
	ModTime     time.Time
}
