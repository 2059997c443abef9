// Package raster holds the in-memory representation of a PPM image.
//
// A Raster owns a single contiguous buffer of interleaved red, green and blue
// samples stored row-major. Pixel (row, col) occupies the three bytes starting
// at (row*Width+col)*3. Rows and columns are 0-based with the origin at the
// top-left corner, matching the order in which the pixel-map format stores
// samples.
//
// # Lifecycle
//
// A Raster is created and populated by the ppm decoder, mutated in place by
// the flood fill engine and released by the ppm encoder once the image has
// been written. Accessing pixels of a released Raster panics.
//
// # Thread Safety
//
// Raster performs no locking. Callers sharing a Raster between goroutines
// must synchronize access themselves (see imaging.RasterCache).
package raster
