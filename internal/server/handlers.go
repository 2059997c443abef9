package server

import (
	"encoding/json"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/ppmfill/internal/floodfill"
	"github.com/ironsheep/ppmfill/internal/imaging"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ppm_load", "ppm_flood_fill").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed",
			zap.String("tool", params.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Info("tool call",
		zap.String("tool", params.Name),
		zap.Duration("elapsed", time.Since(start)))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the image into the cache as needed
//  4. Calls the matching imaging or floodfill function under the entry lock
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image lifecycle
	case "ppm_load":
		return s.handleLoad(args)
	case "ppm_dimensions":
		return s.handleDimensions(args)
	case "ppm_save":
		return s.handleSave(args)
	case "ppm_unload":
		return s.handleUnload(args)
	case "ppm_import":
		return s.handleImport(args)

	// Color inspection
	case "ppm_sample_color":
		return s.handleSampleColor(args)
	case "ppm_sample_colors_multi":
		return s.handleSampleColorsMulti(args)
	case "ppm_palette":
		return s.handlePalette(args)

	// Editing
	case "ppm_flood_fill":
		return s.handleFloodFill(args)
	case "ppm_region":
		return s.handleRegion(args)
	case "ppm_convert":
		return s.handleConvert(args)

	// Rendering
	case "ppm_preview":
		return s.handlePreview(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// regionBounds is an inclusive row/col bounding box.
type regionBounds struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Bottom int `json:"bottom"`
	Right  int `json:"right"`
}

func newRegionBounds(r image.Rectangle) *regionBounds {
	if r.Empty() {
		return nil
	}
	return &regionBounds{
		Top:    r.Min.Y,
		Left:   r.Min.X,
		Bottom: r.Max.Y - 1,
		Right:  r.Max.X - 1,
	}
}

// colorArgs names a target color either as a hex string or as three
// channel values.
type colorArgs struct {
	Color string `json:"color,omitempty"`
	R     *int   `json:"r,omitempty"`
	G     *int   `json:"g,omitempty"`
	B     *int   `json:"b,omitempty"`
}

func (a colorArgs) target() (raster.Color, error) {
	channels := a.R != nil || a.G != nil || a.B != nil
	if a.Color != "" {
		if channels {
			return raster.Color{}, fmt.Errorf("give either color or r, g and b, not both")
		}
		return imaging.ParseHexColor(a.Color)
	}
	if a.R == nil || a.G == nil || a.B == nil {
		return raster.Color{}, fmt.Errorf("target color required: color or all of r, g and b")
	}

	var c [3]uint8
	for i, v := range []*int{a.R, a.G, a.B} {
		if *v < 0 || *v > 255 {
			return raster.Color{}, fmt.Errorf("channel %c out of range 0-255: %d", "rgb"[i], *v)
		}
		c[i] = uint8(*v)
	}
	return raster.Color{R: c[0], G: c[1], B: c[2]}, nil
}

// === Image Lifecycle Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type saveArgs struct {
	Path   string `json:"path"`
	Dest   string `json:"dest,omitempty"`
	Format string `json:"format,omitempty"`
}

func (s *Server) handleSave(args json.RawMessage) (interface{}, error) {
	var a saveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	enc := raster.Invalid
	if a.Format != "" {
		var ok bool
		if enc, ok = raster.ParseEncoding(a.Format); !ok {
			return nil, fmt.Errorf("unknown format %q: want p3 or p6", a.Format)
		}
	}

	e, err := s.cache.Get(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Save(e, a.Dest, enc)
}

type unloadResult struct {
	Path             string `json:"path"`
	Evicted          bool   `json:"evicted"`
	DiscardedChanges bool   `json:"discarded_changes"`
}

func (s *Server) handleUnload(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	res := &unloadResult{Path: a.Path}
	if e, err := s.cache.Get(a.Path); err == nil {
		res.Evicted = true
		res.DiscardedChanges = e.Modified()
		s.cache.Evict(a.Path)
	}
	return res, nil
}

type importArgs struct {
	Path   string `json:"path"`
	Dest   string `json:"dest"`
	Format string `json:"format,omitempty"`
}

// handleImport converts a PNG, JPEG or GIF file to PPM so it can be filled.
func (s *Server) handleImport(args json.RawMessage) (interface{}, error) {
	var a importArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	enc := raster.Invalid
	if a.Format != "" {
		var ok bool
		if enc, ok = raster.ParseEncoding(a.Format); !ok {
			return nil, fmt.Errorf("unknown format %q: want p3 or p6", a.Format)
		}
	}
	return imaging.Import(s.cache, a.Path, a.Dest, enc)
}

// === Color Inspection Handlers ===

type pointArgs struct {
	Path string `json:"path"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res *imaging.ColorResult
	err = e.View(func(m *raster.Raster) error {
		res, err = imaging.SampleColor(m, a.Row, a.Col)
		return err
	})
	return res, err
}

type sampleColorsMultiArgs struct {
	Path   string `json:"path"`
	Points []struct {
		Row   int    `json:"row"`
		Col   int    `json:"col"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a sampleColorsMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{Row: p.Row, Col: p.Col, Label: p.Label}
	}

	var res *imaging.MultiColorResult
	err = e.View(func(m *raster.Raster) error {
		res, err = imaging.SampleColorsMulti(m, points)
		return err
	})
	return res, err
}

type paletteArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (s *Server) handlePalette(args json.RawMessage) (interface{}, error) {
	var a paletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res *imaging.PaletteResult
	err = e.View(func(m *raster.Raster) error {
		res, err = imaging.Palette(m, a.Count)
		return err
	})
	return res, err
}

// === Editing Handlers ===

type floodFillArgs struct {
	Path string `json:"path"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	colorArgs
}

type floodFillResult struct {
	Origin imaging.ColorResult `json:"origin"`
	Target imaging.ColorResult `json:"target"`
	Filled int                 `json:"filled"`
	NoOp   bool                `json:"no_op"`
	Bounds *regionBounds       `json:"bounds,omitempty"`
}

func (s *Server) handleFloodFill(args json.RawMessage) (interface{}, error) {
	var a floodFillArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	target, err := a.target()
	if err != nil {
		return nil, err
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res floodfill.Result
	err = e.Update(func(m *raster.Raster) (bool, error) {
		res, err = floodfill.Fill(m, a.Row, a.Col, target)
		return err == nil && !res.NoOp, err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("flood fill",
		zap.String("path", a.Path),
		zap.Int("row", a.Row),
		zap.Int("col", a.Col),
		zap.String("target", target.Hex()),
		zap.Int("filled", res.Filled),
		zap.Bool("no_op", res.NoOp))

	return &floodFillResult{
		Origin: imaging.NewColorResult(res.Origin),
		Target: imaging.NewColorResult(target),
		Filled: res.Filled,
		NoOp:   res.NoOp,
		Bounds: newRegionBounds(res.Bounds),
	}, nil
}

type regionArgs struct {
	Path           string `json:"path"`
	Row            int    `json:"row"`
	Col            int    `json:"col"`
	Preview        bool   `json:"preview,omitempty"`
	MaxSize        int    `json:"max_size,omitempty"`
	HighlightColor string `json:"highlight_color,omitempty"`
}

type regionResult struct {
	Origin  imaging.ColorResult    `json:"origin"`
	Pixels  int                    `json:"pixels"`
	Bounds  *regionBounds          `json:"bounds"`
	Preview *imaging.PreviewResult `json:"preview,omitempty"`
}

// handleRegion reports the pixels a fill at (row, col) would recolor without
// changing the image.
func (s *Server) handleRegion(args json.RawMessage) (interface{}, error) {
	var a regionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize == 0 {
		a.MaxSize = s.cfg.PreviewSize
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res := &regionResult{}
	err = e.View(func(m *raster.Raster) error {
		mask, err := floodfill.Region(m, a.Row, a.Col)
		if err != nil {
			return err
		}
		res.Origin = imaging.NewColorResult(m.At(a.Row, a.Col))
		res.Pixels = mask.Count()
		res.Bounds = newRegionBounds(mask.Bounds())

		if a.Preview {
			res.Preview, err = imaging.Preview(m, imaging.PreviewOptions{
				MaxSize:        a.MaxSize,
				Highlight:      mask,
				HighlightColor: a.HighlightColor,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type convertArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

type convertResult struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Previous string `json:"previous"`
	Changed  bool   `json:"changed"`
}

// handleConvert changes the encoding used by the next save. Pixel data is
// not touched.
func (s *Server) handleConvert(args json.RawMessage) (interface{}, error) {
	var a convertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	enc, ok := raster.ParseEncoding(a.Format)
	if !ok {
		return nil, fmt.Errorf("unknown format %q: want p3 or p6", a.Format)
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res := &convertResult{Path: a.Path, Format: enc.Tag()}
	err = e.Update(func(m *raster.Raster) (bool, error) {
		res.Previous = m.Encoding.Tag()
		res.Changed = m.Encoding != enc
		m.Encoding = enc
		return res.Changed, nil
	})
	return res, err
}

// === Rendering Handlers ===

type previewArgs struct {
	Path        string `json:"path"`
	MaxSize     int    `json:"max_size,omitempty"`
	Region      string `json:"region,omitempty"`
	GridSpacing int    `json:"grid_spacing,omitempty"`
	GridColor   string `json:"grid_color,omitempty"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize == 0 {
		a.MaxSize = s.cfg.PreviewSize
	}
	e, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res *imaging.PreviewResult
	err = e.View(func(m *raster.Raster) error {
		res, err = imaging.Preview(m, imaging.PreviewOptions{
			MaxSize:     a.MaxSize,
			Region:      a.Region,
			GridSpacing: a.GridSpacing,
			GridColor:   a.GridColor,
		})
		return err
	})
	return res, err
}
