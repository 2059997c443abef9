// Package server implements the MCP (Model Context Protocol) server behind
// "ppmfill serve".
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and
// exposes the flood-fill workflow as tools so that a client can load an
// image, inspect it, fill regions and save the result over several calls.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image lifecycle:
//   - ppm_load: Load a P3/P6 image and report its header
//   - ppm_dimensions: Get width and height
//   - ppm_save: Write the in-memory image, optionally elsewhere or re-encoded
//   - ppm_unload: Drop an image and any unsaved edits
//   - ppm_import: Convert a PNG, JPEG or GIF file to PPM
//
// Color inspection:
//   - ppm_sample_color: Exact color at a pixel
//   - ppm_sample_colors_multi: Sample multiple pixels
//   - ppm_palette: Most frequent exact colors
//
// Editing:
//   - ppm_flood_fill: Recolor the 4-connected region around a seed
//   - ppm_region: Report that region without changing anything
//   - ppm_convert: Switch between P3 and P6 for the next save
//
// Rendering:
//   - ppm_preview: PNG thumbnail with optional region crop and grid
//
// # Image Caching
//
// Images are decoded once and kept in memory keyed by path. Fills edit the
// cached copy; nothing reaches disk until ppm_save. The cache is
// dropped when the session ends. Coordinates are always
// (row, col) with (0, 0) at the top-left pixel.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
