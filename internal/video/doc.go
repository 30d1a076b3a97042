// Package video extracts representative-frame candidates from video
// containers via exec'd ffprobe/ffmpeg and selects the best one with a
// deterministic luma-based score. Candidates are decoded independently
// so memory is bounded by the candidate count, never the file size.
package video
