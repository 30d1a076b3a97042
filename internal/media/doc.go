// Package media implements the image half of the thumbnail pipeline:
// content-based format classification, raster decoding with memory
// constraints, layered document flattening, aspect-preserving resize,
// and WebP encoding. An optional libvips fast path shrinks large
// rasters at decode time.
package media
