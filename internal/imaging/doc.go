// Package imaging holds the in-memory working set behind the MCP server:
// a cache of decoded PPM rasters, color sampling and PNG previews.
//
// # Coordinate System
//
// Pixel coordinates are 0-based (row, col) pairs with the origin at the
// top-left pixel, matching floodfill and the command line. Where an
// image.Rectangle is used, X is the column and Y is the row, Min inclusive
// and Max exclusive.
//
// # Thread Safety
//
// RasterCache and Entry are safe for concurrent use. Functions that take a
// *raster.Raster directly expect the caller to hold the entry's lock, which
// Entry.View and Entry.Update arrange.
//
// # Color Representation
//
// Samples are reported exactly as stored, without rescaling by the header's
// max value:
//   - Hex: "#RRGGBB"
//   - RGB: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package imaging
