package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"thumbserver/internal/logging"

	// The extracted frame arrives as a PNG on ffmpeg's stdout.
	_ "image/png"
)

// DefaultCandidates is the number of representative-frame candidates
// decoded per video when no override is configured.
const DefaultCandidates = 5

// Candidate is one decoded video frame under consideration as the
// representative thumbnail source. It lives only for the duration of
// the scoring pass.
type Candidate struct {
	Timestamp float64
	Image     image.Image
}

// Info describes the video stream ffprobe found.
type Info struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// Probe runs ffprobe against the container and returns stream
// information. A container with no video stream is an error.
func Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w - %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &Info{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	for _, s := range out.Streams {
		if s.CodecType == "video" {
			info.Width = s.Width
			info.Height = s.Height
			info.Codec = s.CodecName
			return info, nil
		}
	}
	return nil, fmt.Errorf("no video stream in %s", path)
}

// KeyframeIndex lists keyframe timestamps by scanning packet metadata,
// which does not decode any frames. The result is sorted ascending.
func KeyframeIndex(ctx context.Context, path string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags",
		"-of", "csv=p=0",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w - %s", err, stderr.String())
	}

	return parsePacketIndex(stdout.String()), nil
}

// parsePacketIndex extracts keyframe timestamps from ffprobe's
// packet CSV ("pts_time,flags" per line). Packets without the K flag
// or without a usable pts_time (N/A) are skipped.
func parsePacketIndex(csv string) []float64 {
	var keyframes []float64
	for _, line := range strings.Split(csv, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < 2 || !strings.Contains(fields[1], "K") {
			continue
		}
		ts, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		keyframes = append(keyframes, ts)
	}

	sort.Float64s(keyframes)
	return keyframes
}

// CandidateTimes picks up to count sample timestamps for a container
// of the given duration: evenly spaced interior points snapped to the
// nearest keyframe so every extraction lands on a cheap decode point.
// With fewer keyframes than count, all keyframes are used. With no
// keyframe index at all, the raw even-spaced times are returned.
// The result is sorted, deduplicated, and never empty for count > 0.
func CandidateTimes(duration float64, count int, keyframes []float64) []float64 {
	if count < 1 {
		count = 1
	}
	if duration <= 0 {
		if len(keyframes) > 0 && len(keyframes) <= count {
			return append([]float64(nil), keyframes...)
		}
		return []float64{0}
	}

	if len(keyframes) > 0 && len(keyframes) <= count {
		return append([]float64(nil), keyframes...)
	}

	targets := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		targets = append(targets, duration*float64(i+1)/float64(count+1))
	}

	if len(keyframes) == 0 {
		return targets
	}

	snapped := make([]float64, 0, count)
	for _, target := range targets {
		snapped = append(snapped, nearest(keyframes, target))
	}

	sort.Float64s(snapped)
	out := snapped[:0]
	for i, ts := range snapped {
		if i == 0 || ts != out[len(out)-1] {
			out = append(out, ts)
		}
	}
	return out
}

// nearest returns the value in sorted that is closest to target.
func nearest(sorted []float64, target float64) float64 {
	i := sort.SearchFloat64s(sorted, target)
	if i == 0 {
		return sorted[0]
	}
	if i == len(sorted) {
		return sorted[len(sorted)-1]
	}
	if target-sorted[i-1] <= sorted[i]-target {
		return sorted[i-1]
	}
	return sorted[i]
}

// ExtractCandidates decodes up to count candidate frames from the
// container. Each candidate is decoded by an independent ffmpeg
// invocation so no decoder state or full-file buffer is held across
// candidates; a candidate that fails to decode is skipped. Zero
// decodable candidates is an error.
func ExtractCandidates(ctx context.Context, path string, count int) ([]Candidate, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	keyframes, err := KeyframeIndex(ctx, path)
	if err != nil {
		logging.Debug("video: keyframe index unavailable for %s: %v", path, err)
		keyframes = nil
	}

	times := CandidateTimes(info.Duration, count, keyframes)
	logging.Debug("video: %s duration=%.2fs keyframes=%d candidates=%v",
		path, info.Duration, len(keyframes), times)

	candidates := make([]Candidate, 0, len(times))
	for _, ts := range times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := extractFrame(ctx, path, ts)
		if err != nil {
			logging.Debug("video: frame at %.3fs undecodable in %s: %v", ts, path, err)
			continue
		}
		candidates = append(candidates, Candidate{Timestamp: ts, Image: img})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no decodable frames in %s", path)
	}
	return candidates, nil
}

// extractFrame decodes the single frame nearest ts. Seeking before the
// input (-ss ahead of -i) makes ffmpeg jump to the preceding keyframe
// instead of decoding from the start.
func extractFrame(ctx context.Context, path string, ts float64) (image.Image, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w - %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output at %.3fs", ts)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode extracted frame: %w", err)
	}
	return img, nil
}
