// Package ppm reads and writes the PPM pixel-map format in its two
// encodings: P3 (text samples) and P6 (raw byte samples).
//
// Both encodings share one header layout:
//
//	<tag>\n                 "P3" or "P6"
//	[#<comment>\n]          optional, only directly after the tag line
//	<width> <height>\n
//	<maxval>
//	<separator><pixel data>
//
// Decode materializes the whole image into a raster.Raster. Encode writes a
// Raster back out using its Encoding and releases the Raster's storage once
// the write has succeeded.
//
// # Errors
//
// Failures are reported as *FormatError (bad tag, header or sample token),
// *TruncatedInputError (stream ended before width*height*3 samples) or
// *raster.AllocationError (dimensions above the pixel limit). Use errors.Is
// with ErrFormat, ErrTruncated or raster.ErrAllocation to classify them.
//
// # Compressed Files
//
// ReadFile and WriteFile transparently handle ".gz" and ".zst" paths.
//
// Importing this package registers "ppm" with the standard image package, so
// image.Decode accepts P3 and P6 streams.
package ppm
