// Package pipeline orchestrates thumbnail generation: classify,
// decode, score (video), resize, encode. Every run is stateless and
// scoped to one request; stage failures surface as typed errors the
// HTTP layer maps to status codes.
package pipeline
