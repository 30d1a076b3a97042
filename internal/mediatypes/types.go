package mediatypes

// Kind is the decode strategy selected for an asset. It is a closed
// set: the pipeline switches on the kind rather than dispatching on
// file extensions.
type Kind string

const (
	// KindRaster is a single-frame bitmap image (JPEG, PNG, GIF, WebP,
	// BMP, TIFF).
	KindRaster Kind = "raster"
	// KindLayered is a layered composite document (PSD).
	KindLayered Kind = "layered"
	// KindVideo is a video container with at least one video stream.
	KindVideo Kind = "video"
	// KindUnsupported means no decode strategy applies. It is a normal
	// classification result, not an error.
	KindUnsupported Kind = "unsupported"
)

// RasterExtensions maps file extensions to whether the raster decoder
// is expected to handle them. Extensions are hints for logging and
// metrics only; routing is decided by content sniffing.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// LayeredExtensions maps file extensions for layered composite documents.
var LayeredExtensions = map[string]bool{
	".psd": true,
	".psb": true,
}

// VideoExtensions maps file extensions for video containers.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their MIME types, used by the raw
// passthrough route.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".psd":  "image/vnd.adobe.photoshop",
	".psb":  "image/vnd.adobe.photoshop",

	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// KindForExtension returns the Kind hinted by a file extension. The
// extension should be lowercase and include the leading dot.
func KindForExtension(ext string) Kind {
	switch {
	case RasterExtensions[ext]:
		return KindRaster
	case LayeredExtensions[ext]:
		return KindLayered
	case VideoExtensions[ext]:
		return KindVideo
	}
	return KindUnsupported
}

// GetMimeType returns the MIME type for a given file extension, or
// "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
