package video

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

func solidFrame(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// noisyFrame produces a mid-brightness frame with high luma variety.
// The generator is seeded so the frame is identical across runs.
func noisyFrame(seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestScoreOrdering(t *testing.T) {
	black := Score(solidFrame(color.NRGBA{A: 255}))
	white := Score(solidFrame(color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	gray := Score(solidFrame(color.NRGBA{R: 128, G: 128, B: 128, A: 255}))
	noisy := Score(noisyFrame(1))

	// A varied mid-brightness frame beats any flat frame.
	if noisy <= gray {
		t.Errorf("noisy frame score %f not above flat gray %f", noisy, gray)
	}
	// Mid-gray beats the extremes on the brightness term.
	if gray <= black {
		t.Errorf("gray score %f not above black %f", gray, black)
	}
	if gray <= white {
		t.Errorf("gray score %f not above white %f", gray, white)
	}
}

func TestScoreRange(t *testing.T) {
	frames := []*image.NRGBA{
		solidFrame(color.NRGBA{A: 255}),
		solidFrame(color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		noisyFrame(7),
	}
	for i, f := range frames {
		s := Score(f)
		if s < 0 || s > 1 {
			t.Errorf("frame %d score %f outside [0,1]", i, s)
		}
	}
}

func TestScoreEmptyImage(t *testing.T) {
	if s := Score(image.NewNRGBA(image.Rect(0, 0, 0, 0))); s != 0 {
		t.Errorf("Score(empty) = %f, want 0", s)
	}
}

func TestSelectBestDeterministic(t *testing.T) {
	candidates := []Candidate{
		{Timestamp: 1, Image: solidFrame(color.NRGBA{A: 255})},
		{Timestamp: 2, Image: noisyFrame(42)},
		{Timestamp: 3, Image: solidFrame(color.NRGBA{R: 255, G: 255, B: 255, A: 255})},
		{Timestamp: 4, Image: noisyFrame(43)},
	}

	firstIdx, firstScore := SelectBest(candidates)
	for i := 0; i < 10; i++ {
		idx, score := SelectBest(candidates)
		if idx != firstIdx || score != firstScore {
			t.Fatalf("run %d selected (%d, %f), first run selected (%d, %f)", i, idx, score, firstIdx, firstScore)
		}
	}
}

func TestSelectBestTieBreakEarliest(t *testing.T) {
	frame := noisyFrame(5)
	candidates := []Candidate{
		{Timestamp: 8.0, Image: frame},
		{Timestamp: 2.0, Image: frame},
		{Timestamp: 5.0, Image: frame},
	}

	idx, _ := SelectBest(candidates)
	if candidates[idx].Timestamp != 2.0 {
		t.Errorf("tie broken to timestamp %f, want earliest 2.0", candidates[idx].Timestamp)
	}
}

func TestSelectBestNoCandidates(t *testing.T) {
	idx, score := SelectBest(nil)
	if idx != -1 || score != 0 {
		t.Errorf("SelectBest(nil) = (%d, %f), want (-1, 0)", idx, score)
	}
}

func TestSelectBestSingleCandidate(t *testing.T) {
	candidates := []Candidate{{Timestamp: 3, Image: solidFrame(color.NRGBA{A: 255})}}
	idx, _ := SelectBest(candidates)
	if idx != 0 {
		t.Errorf("single candidate index = %d, want 0", idx)
	}
}

func TestSelectBestPrefersInformativeFrame(t *testing.T) {
	candidates := []Candidate{
		{Timestamp: 1, Image: solidFrame(color.NRGBA{A: 255})},          // fade to black
		{Timestamp: 2, Image: noisyFrame(11)},                           // actual content
		{Timestamp: 3, Image: solidFrame(color.NRGBA{R: 250, G: 250, B: 250, A: 255})}, // white flash
	}

	idx, _ := SelectBest(candidates)
	if idx != 1 {
		t.Errorf("selected candidate %d, want the varied mid-brightness frame at index 1", idx)
	}
}
