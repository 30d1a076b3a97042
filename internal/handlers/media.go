package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"thumbserver/internal/logging"
	"thumbserver/internal/mediatypes"
	"thumbserver/internal/pipeline"

	"github.com/gorilla/mux"
)

// Generated images are immutable for a given source mtime, so clients
// may cache them for 30 days and revalidate with If-Modified-Since.
const imageCacheControl = "public, max-age=2592000"

// GetThumbnail renders a size-bucketed WebP preview of the requested file.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	filePath := mux.Vars(r)["path"]

	logging.Debug("thumbnail requested: %s (size=%q)", filePath, r.URL.Query().Get("size"))

	fullPath, ok := h.resolvePath(w, filePath)
	if !ok {
		return
	}

	size, err := pipeline.ParseSizeBucket(r.URL.Query().Get("size"))
	if err != nil {
		h.writePipelineError(w, filePath, err)
		return
	}

	res, err := h.gen.Generate(r.Context(), pipeline.Request{
		Path: fullPath,
		Mode: pipeline.ModeThumbnail,
		Size: size,
	})
	if err != nil {
		h.writePipelineError(w, filePath, err)
		return
	}

	h.writeImage(w, r, res)
}

// GetMedia renders a full-size WebP rendition of the requested file.
// Unlike thumbnails the source dimensions are preserved, so PSD and
// video sources become viewable without client-side decoders.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	filePath := mux.Vars(r)["path"]

	logging.Debug("media rendition requested: %s", filePath)

	fullPath, ok := h.resolvePath(w, filePath)
	if !ok {
		return
	}

	res, err := h.gen.Generate(r.Context(), pipeline.Request{
		Path: fullPath,
		Mode: pipeline.ModeMedia,
	})
	if err != nil {
		h.writePipelineError(w, filePath, err)
		return
	}

	h.writeImage(w, r, res)
}

// GetRaw serves the original file bytes untouched as a download.
func (h *Handlers) GetRaw(w http.ResponseWriter, r *http.Request) {
	filePath := mux.Vars(r)["path"]

	fullPath, ok := h.resolvePath(w, filePath)
	if !ok {
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(fullPath)))
	w.Header().Set("Content-Type",
		mediatypes.GetMimeType(strings.ToLower(filepath.Ext(fullPath))))
	http.ServeFile(w, r, fullPath)
}

// resolvePath joins the request path onto the media root and rejects
// anything that escapes it. A false return means the response has
// already been written.
func (h *Handlers) resolvePath(w http.ResponseWriter, filePath string) (string, bool) {
	if filePath == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return "", false
	}

	fullPath := filepath.Join(h.mediaDir, filePath)
	absPath, err := filepath.Abs(fullPath)
	if err != nil || !isSubPath(h.mediaDir, absPath) {
		logging.Warn("rejected path outside media dir: %s", filePath)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	return fullPath, true
}

// writeImage sends an encoded result, honoring If-Modified-Since so
// unchanged sources revalidate without re-encoding on the client side.
func (h *Handlers) writeImage(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	lastModified := res.ModTime.UTC().Truncate(time.Second)
	w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
	w.Header().Set("Cache-Control", imageCacheControl)

	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if since, err := http.ParseTime(ims); err == nil && !lastModified.After(since) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	if _, err := w.Write(res.Data); err != nil {
		logging.Debug("writing image response: %v", err)
	}
}

// writePipelineError maps a generation failure to an HTTP status.
// Client disconnects produce no response at all.
func (h *Handlers) writePipelineError(w http.ResponseWriter, filePath string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.Debug("request for %s abandoned: %v", filePath, err)
		return
	}

	kind, ok := pipeline.KindOf(err)
	if !ok {
		logging.Error("unexpected pipeline failure for %s: %v", filePath, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch kind {
	case pipeline.KindNotFound:
		logging.Warn("file not found: %s", filePath)
		http.Error(w, "File not found", http.StatusNotFound)
	case pipeline.KindUnsupportedFormat:
		logging.Warn("unsupported format: %s", filePath)
		http.Error(w, "Unsupported media format", http.StatusUnsupportedMediaType)
	case pipeline.KindInvalidParameter:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logging.Error("generation failed for %s: %v", filePath, err)
		http.Error(w, "Failed to generate image", http.StatusInternalServerError)
	}
}

func isSubPath(parent, child string) bool {
	parent, _ = filepath.Abs(parent)
	child, _ = filepath.Abs(child)
	if child == parent {
		return true
	}
	// Require a separator boundary so /media does not admit /media-evil.
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
