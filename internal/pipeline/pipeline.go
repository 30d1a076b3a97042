package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"thumbserver/internal/logging"
	"thumbserver/internal/media"
	"thumbserver/internal/mediatypes"
	"thumbserver/internal/metrics"
	"thumbserver/internal/video"
	"thumbserver/internal/workers"
)

// Generator runs the thumbnail pipeline. It holds no per-request
// state: every Generate call is independent and all buffers it creates
// die with the call, so concurrent requests for the same asset cannot
// observe each other.
type Generator struct {
	pool            *workers.Pool
	videoCandidates int
}

// NewGenerator creates a Generator backed by the given worker pool.
// videoCandidates bounds how many frames are decoded per video; values
// below one fall back to the default.
func NewGenerator(pool *workers.Pool, videoCandidates int) *Generator {
	if videoCandidates < 1 {
		videoCandidates = video.DefaultCandidates
	}
	metrics.WorkerSlotsTotal.Set(float64(pool.Size()))
	return &Generator{pool: pool, videoCandidates: videoCandidates}
}

// Generate produces one encoded thumbnail or media image for req.
// Failures are always a *Error (or a context error when the caller
// went away); partial buffers are never returned. The result's ModTime
// is captured before any decoding starts.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Mode != ModeThumbnail && req.Mode != ModeMedia {
		return nil, invalidParameterError("unknown mode %q", req.Mode)
	}
	if req.Mode == ModeThumbnail && req.Size.MaxEdge() == 0 {
		return nil, invalidParameterError("unknown size bucket %q", req.Size)
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		metrics.PipelineGenerationsTotal.WithLabelValues("unsupported", "error_not_found").Inc()
		return nil, notFoundError(err)
	}
	if info.IsDir() {
		metrics.PipelineGenerationsTotal.WithLabelValues("unsupported", "error_not_found").Inc()
		return nil, &Error{Kind: KindNotFound, Err: fmt.Errorf("%s is a directory", req.Path)}
	}
	modTime := info.ModTime()

	// Queue for a worker slot; saturation is the backpressure that
	// bounds concurrent decodes and with them peak memory.
	queueStart := time.Now()
	if err := g.pool.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.pool.Release()
	metrics.PipelineQueueWait.Observe(time.Since(queueStart).Seconds())
	metrics.WorkerSlotsInUse.Set(float64(g.pool.InUse()))
	defer func() { metrics.WorkerSlotsInUse.Set(float64(g.pool.InUse())) }()

	classifyStart := time.Now()
	kind, err := media.Classify(req.Path)
	metrics.PipelineStageDuration.WithLabelValues("classify").Observe(time.Since(classifyStart).Seconds())
	if err != nil {
		metrics.PipelineGenerationsTotal.WithLabelValues("unsupported", "error_not_found").Inc()
		return nil, notFoundError(err)
	}

	img, err := g.decode(ctx, req, kind)
	if err != nil {
		g.countFailure(kind, err)
		return nil, err
	}

	if req.Mode == ModeThumbnail {
		resizeStart := time.Now()
		img = media.Fit(img, req.Size.MaxEdge())
		metrics.PipelineStageDuration.WithLabelValues("resize").Observe(time.Since(resizeStart).Seconds())
	}

	quality := float32(media.ThumbnailQuality)
	if req.Mode == ModeMedia {
		quality = media.MediaQuality
	}

	encodeStart := time.Now()
	data, err := media.EncodeWebP(img, quality)
	metrics.PipelineStageDuration.WithLabelValues("encode").Observe(time.Since(encodeStart).Seconds())
	if err != nil {
		metrics.PipelineGenerationsTotal.WithLabelValues(string(kind), "error_encode").Inc()
		return nil, encodeError(err)
	}

	metrics.PipelineGenerationsTotal.WithLabelValues(string(kind), "success").Inc()
	metrics.PipelineOutputBytes.WithLabelValues(string(req.Mode)).Observe(float64(len(data)))

	return &Result{
		Data:        data,
		ContentType: media.ContentTypeWebP,
		ModTime:     modTime,
	}, nil
}

// decode routes to the decoder for kind and returns exactly one pixel
// buffer. For video it also runs candidate scoring; losing candidates
// become garbage as soon as this returns.
func (g *Generator) decode(ctx context.Context, req Request, kind mediatypes.Kind) (image.Image, error) {
	decodeStart := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("decode").Observe(time.Since(decodeStart).Seconds())
	}()

	switch kind {
	case mediatypes.KindRaster:
		var img image.Image
		var err error
		if req.Mode == ModeThumbnail {
			img, err = media.DecodeRasterFit(req.Path, req.Size.MaxEdge())
		} else {
			img, err = media.DecodeRaster(req.Path)
		}
		if err != nil {
			return nil, decodeError("raster", err)
		}
		return img, nil

	case mediatypes.KindLayered:
		img, err := media.FlattenPSD(req.Path)
		if err != nil {
			return nil, decodeError("psd", err)
		}
		return img, nil

	case mediatypes.KindVideo:
		candidates, err := video.ExtractCandidates(ctx, req.Path, g.videoCandidates)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, decodeError("video", err)
		}
		metrics.VideoCandidatesDecoded.Observe(float64(len(candidates)))

		scoreStart := time.Now()
		idx, score := video.SelectBest(candidates)
		metrics.PipelineStageDuration.WithLabelValues("score").Observe(time.Since(scoreStart).Seconds())
		metrics.VideoWinningScore.Observe(score)

		logging.Debug("pipeline: %s selected frame %d/%d at %.3fs (score %.3f)",
			req.Path, idx+1, len(candidates), candidates[idx].Timestamp, score)
		return candidates[idx].Image, nil
	}

	metrics.PipelineGenerationsTotal.WithLabelValues("unsupported", "error_unsupported").Inc()
	return nil, unsupportedError(req.Path)
}

// countFailure records a failed generation, distinguishing client
// cancellation from decode failures.
func (g *Generator) countFailure(kind mediatypes.Kind, err error) {
	if k, ok := KindOf(err); ok {
		switch k {
		case KindDecode:
			metrics.PipelineGenerationsTotal.WithLabelValues(string(kind), "error_decode").Inc()
		case KindUnsupportedFormat:
			// already counted at the decode site
		}
		return
	}
	metrics.PipelineGenerationsTotal.WithLabelValues(string(kind), "error_canceled").Inc()
}
