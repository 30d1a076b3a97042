package video

import (
	"image"
	"math"
)

// Scoring weights and targets. These are policy constants, not request
// parameters: the same inputs must always select the same frame.
const (
	// lumaTarget is the mid-range mean luma that scores best; frames
	// far from it (fade-to-black, white flashes) are penalized.
	lumaTarget = 128.0

	// brightnessWeight and entropyWeight combine the two normalized
	// scoring terms.
	brightnessWeight = 0.4
	entropyWeight    = 0.6

	// lumaBits is the maximum entropy of an 8-bit luma histogram.
	lumaBits = 8.0
)

// Score rates a frame's suitability as a thumbnail source on its luma
// channel: a brightness term that peaks at mid-range mean luma, plus an
// entropy term that rewards information-dense histograms over flat or
// blank frames. The result is in [0, 1] and depends only on the pixel
// data.
func Score(img image.Image) float64 {
	var stats OnlineStats
	var histogram [256]int

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec.601 luma on 8-bit channels.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			stats.Update(luma)

			bin := int(luma)
			if bin > 255 {
				bin = 255
			}
			histogram[bin]++
		}
	}

	if stats.Count() == 0 {
		return 0
	}

	brightness := 1 - math.Abs(stats.Mean()-lumaTarget)/lumaTarget
	if brightness < 0 {
		brightness = 0
	}

	entropy := histogramEntropy(histogram[:], stats.Count())

	return brightnessWeight*brightness + entropyWeight*entropy/lumaBits
}

// histogramEntropy computes Shannon entropy in bits over histogram
// bins with the given total sample count.
func histogramEntropy(histogram []int, total int) float64 {
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, n := range histogram {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// SelectBest scores every candidate and returns the index of the
// winner plus its score. The highest score wins; an exact tie goes to
// the earliest timestamp. A single candidate is returned immediately
// without a tie-break, and an empty slice returns index -1. Selection
// is deterministic: no randomness, no clock.
func SelectBest(candidates []Candidate) (int, float64) {
	if len(candidates) == 0 {
		return -1, 0
	}
	if len(candidates) == 1 {
		return 0, Score(candidates[0].Image)
	}

	best := -1
	bestScore := math.Inf(-1)
	for i, c := range candidates {
		score := Score(c.Image)
		better := score > bestScore ||
			(score == bestScore && best >= 0 && c.Timestamp < candidates[best].Timestamp)
		if best < 0 || better {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}
