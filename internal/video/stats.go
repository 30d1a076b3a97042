package video

import "math"

// OnlineStats accumulates mean and variance in a single pass using
// Welford's online algorithm, avoiding a second traversal of the
// pixel data.
type OnlineStats struct {
	count int
	mean  float64
	m2    float64
}

// Update folds one value into the running statistics.
func (s *OnlineStats) Update(value float64) {
	s.count++
	delta := value - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (value - s.mean)
}

// Count returns the number of values observed.
func (s *OnlineStats) Count() int {
	return s.count
}

// Mean returns the running mean.
func (s *OnlineStats) Mean() float64 {
	return s.mean
}

// Variance returns the sample variance.
func (s *OnlineStats) Variance() float64 {
	if s.count > 1 {
		return s.m2 / float64(s.count-1)
	}
	return 0
}

// StdDev returns the sample standard deviation.
func (s *OnlineStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}
