package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"thumbserver/internal/workers"

	"golang.org/x/image/webp"
)

func newTestGenerator() *Generator {
	return NewGenerator(workers.NewPool(2), 5)
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 99, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func decodeResult(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result as webp: %v", err)
	}
	return img
}

func TestGenerateThumbnailFromRaster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 800, 600)

	gen := newTestGenerator()
	res, err := gen.Generate(context.Background(), Request{
		Path: path,
		Mode: ModeThumbnail,
		Size: SizeSmall,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.ContentType != "image/webp" {
		t.Errorf("ContentType = %q, want image/webp", res.ContentType)
	}

	out := decodeResult(t, res.Data)
	bounds := out.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if longest != SizeSmall.MaxEdge() {
		t.Errorf("longest edge = %d, want %d", longest, SizeSmall.MaxEdge())
	}

	// 4:3 source stays 4:3 within a pixel of rounding.
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())
	if ratio < 1.30 || ratio > 1.37 {
		t.Errorf("aspect ratio = %f, want about 1.333", ratio)
	}
}

func TestGenerateMediaModeKeepsNativeSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "art.png")
	writePNG(t, path, 320, 240)

	gen := newTestGenerator()
	res, err := gen.Generate(context.Background(), Request{Path: path, Mode: ModeMedia})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := decodeResult(t, res.Data)
	if out.Bounds().Dx() != 320 || out.Bounds().Dy() != 240 {
		t.Errorf("media output = %dx%d, want native 320x240", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestGenerateNeverUpscalesSmallSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.png")
	writePNG(t, path, 100, 80)

	gen := newTestGenerator()
	res, err := gen.Generate(context.Background(), Request{
		Path: path,
		Mode: ModeThumbnail,
		Size: SizeLarge,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := decodeResult(t, res.Data)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 80 {
		t.Errorf("output = %dx%d, want untouched 100x80", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestGenerateModTimeCapturedBeforeDecoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 64, 64)

	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	gen := newTestGenerator()

	first, err := gen.Generate(context.Background(), Request{Path: path, Mode: ModeThumbnail, Size: SizeMedium})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !first.ModTime.Equal(modTime) {
		t.Errorf("ModTime = %v, want %v", first.ModTime, modTime)
	}

	// Unchanged file keeps a stable timestamp across requests.
	second, err := gen.Generate(context.Background(), Request{Path: path, Mode: ModeThumbnail, Size: SizeMedium})
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !second.ModTime.Equal(first.ModTime) {
		t.Errorf("ModTime changed between identical requests: %v vs %v", first.ModTime, second.ModTime)
	}

	// Touching the file moves the reported timestamp.
	later := modTime.Add(48 * time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	third, err := gen.Generate(context.Background(), Request{Path: path, Mode: ModeThumbnail, Size: SizeMedium})
	if err != nil {
		t.Fatalf("third Generate failed: %v", err)
	}
	if !third.ModTime.Equal(later) {
		t.Errorf("ModTime after touch = %v, want %v", third.ModTime, later)
	}
}

func TestGenerateErrorKinds(t *testing.T) {
	dir := t.TempDir()

	junk := filepath.Join(dir, "file.xyz")
	if err := os.WriteFile(junk, []byte("garbage contents here"), 0644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	truncated := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(truncated, []byte("\x89PNG\r\n\x1a\n and then nothing useful"), 0644); err != nil {
		t.Fatalf("write truncated: %v", err)
	}

	gen := newTestGenerator()

	tests := []struct {
		name string
		req  Request
		want ErrKind
	}{
		{
			name: "missing file",
			req:  Request{Path: filepath.Join(dir, "absent.jpg"), Mode: ModeThumbnail, Size: SizeMedium},
			want: KindNotFound,
		},
		{
			name: "directory",
			req:  Request{Path: dir, Mode: ModeThumbnail, Size: SizeMedium},
			want: KindNotFound,
		},
		{
			name: "unsupported format",
			req:  Request{Path: junk, Mode: ModeThumbnail, Size: SizeMedium},
			want: KindUnsupportedFormat,
		},
		{
			name: "malformed raster",
			req:  Request{Path: truncated, Mode: ModeThumbnail, Size: SizeMedium},
			want: KindDecode,
		},
		{
			name: "bad mode",
			req:  Request{Path: junk, Mode: Mode("stream")},
			want: KindInvalidParameter,
		},
		{
			name: "thumbnail without bucket",
			req:  Request{Path: junk, Mode: ModeThumbnail},
			want: KindInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.Generate(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Generate returned nil error")
			}
			kind, ok := KindOf(err)
			if !ok {
				t.Fatalf("error %v is not a pipeline error", err)
			}
			if kind != tt.want {
				t.Errorf("error kind = %v, want %v", kind, tt.want)
			}
		})
	}
}

func TestGenerateDecodeErrorNamesStage(t *testing.T) {
	dir := t.TempDir()
	badPSD := filepath.Join(dir, "broken.psd")
	if err := os.WriteFile(badPSD, []byte("8BPS\x00\x01 truncated"), 0644); err != nil {
		t.Fatalf("write psd: %v", err)
	}

	gen := newTestGenerator()
	_, err := gen.Generate(context.Background(), Request{Path: badPSD, Mode: ModeMedia})
	if err == nil {
		t.Fatal("Generate returned nil error")
	}

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *Error", err)
	}
	if pe.Kind != KindDecode || pe.Stage != "psd" {
		t.Errorf("error = kind %v stage %q, want decode/psd", pe.Kind, pe.Stage)
	}
}

func TestGenerateConcurrentRequestsIndependent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared.png")
	writePNG(t, path, 1600, 1200)

	gen := newTestGenerator()

	type outcome struct {
		bucket SizeBucket
		res    *Result
		err    error
	}

	buckets := []SizeBucket{SizeSmall, SizeLarge, SizeSmall, SizeLarge}
	results := make([]outcome, len(buckets))

	var wg sync.WaitGroup
	for i, b := range buckets {
		wg.Add(1)
		go func(i int, b SizeBucket) {
			defer wg.Done()
			res, err := gen.Generate(context.Background(), Request{Path: path, Mode: ModeThumbnail, Size: b})
			results[i] = outcome{bucket: b, res: res, err: err}
		}(i, b)
	}
	wg.Wait()

	for _, o := range results {
		if o.err != nil {
			t.Fatalf("concurrent Generate(%v) failed: %v", o.bucket, o.err)
		}
		out := decodeResult(t, o.res.Data)
		longest := out.Bounds().Dx()
		if out.Bounds().Dy() > longest {
			longest = out.Bounds().Dy()
		}
		if longest != o.bucket.MaxEdge() {
			t.Errorf("bucket %v produced longest edge %d, want %d", o.bucket, longest, o.bucket.MaxEdge())
		}
	}
}

func TestGenerateCanceledWhileQueued(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 64, 64)

	pool := workers.NewPool(1)
	gen := NewGenerator(pool, 5)

	// Occupy the only slot so the request must queue.
	if err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := gen.Generate(ctx, Request{Path: path, Mode: ModeThumbnail, Size: SizeMedium})
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("queued Generate error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued Generate did not return after cancellation")
	}

	if pool.InUse() != 1 {
		t.Errorf("pool.InUse() = %d after canceled request, want 1 (only the test's own slot)", pool.InUse())
	}
}
