package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ppmfill/internal/ppm"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// createTestPPM writes a width x height P6 file filled with c and returns
// its path.
func createTestPPM(t *testing.T, width, height int, c raster.Color) string {
	t.Helper()
	m, err := raster.New(width, height, 0)
	if err != nil {
		t.Fatalf("failed to allocate raster: %v", err)
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			m.Set(row, col, c)
		}
	}
	path := filepath.Join(t.TempDir(), "test.ppm")
	if err := ppm.WriteFile(path, m); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and decodes the tool's JSON result
// into out. It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}

// mustCall is callTool for calls that are expected to succeed.
func mustCall(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()
	if e := callTool(t, s, name, args, out); e != nil {
		t.Fatalf("%s failed: %s: %v", name, e.Message, e.Data)
	}
}

type colorJSON struct {
	Hex string `json:"hex"`
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`[1,2,3]`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	e := callTool(t, s, "image_ocr_full", map[string]interface{}{}, nil)
	if e == nil || e.Code != -32000 {
		t.Fatalf("got %+v, want -32000", e)
	}
	if !strings.Contains(e.Data.(string), "unknown tool") {
		t.Errorf("Data: got %v", e.Data)
	}
}

func TestHandleToolsCall_Load(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 100, 80, raster.Color{R: 255})

	var info struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		MaxValue int    `json:"max_value"`
		Modified bool   `json:"modified"`
	}
	mustCall(t, s, "ppm_load", map[string]interface{}{"path": path}, &info)

	if info.Width != 100 || info.Height != 80 || info.Format != "P6" || info.MaxValue != 255 {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Modified {
		t.Error("freshly loaded image should not be modified")
	}
}

func TestHandleToolsCall_LoadMissing(t *testing.T) {
	s := newTestServer(t)
	e := callTool(t, s, "ppm_load", map[string]interface{}{"path": filepath.Join(t.TempDir(), "none.ppm")}, nil)
	if e == nil || e.Code != -32000 {
		t.Errorf("got %+v, want -32000", e)
	}
}

func TestHandleToolsCall_Dimensions(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 200, 150, raster.Color{G: 255})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	mustCall(t, s, "ppm_dimensions", map[string]interface{}{"path": path}, &dims)
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_SampleColor(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 10, 10, raster.Color{R: 255, G: 128, B: 64})

	var c colorJSON
	mustCall(t, s, "ppm_sample_color", map[string]interface{}{"path": path, "row": 3, "col": 4}, &c)
	if c.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", c.Hex)
	}

	if e := callTool(t, s, "ppm_sample_color", map[string]interface{}{"path": path, "row": 10, "col": 0}, nil); e == nil {
		t.Error("out-of-bounds sample should fail")
	}
}

func TestHandleToolsCall_SampleColorsMulti(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 4, 4, raster.Color{B: 255})

	var res struct {
		Samples []struct {
			Label string    `json:"label"`
			Row   int       `json:"row"`
			Col   int       `json:"col"`
			Color colorJSON `json:"color"`
		} `json:"samples"`
	}
	mustCall(t, s, "ppm_sample_colors_multi", map[string]interface{}{
		"path": path,
		"points": []map[string]interface{}{
			{"row": 0, "col": 0, "label": "corner"},
			{"row": 3, "col": 2},
		},
	}, &res)

	if len(res.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(res.Samples))
	}
	if res.Samples[0].Label != "corner" || res.Samples[1].Row != 3 || res.Samples[1].Col != 2 {
		t.Errorf("unexpected samples: %+v", res.Samples)
	}
	if res.Samples[1].Color.Hex != "#0000FF" {
		t.Errorf("Hex: got %s, want #0000FF", res.Samples[1].Color.Hex)
	}
}

func TestHandleToolsCall_Palette(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 3, 3, raster.Color{R: 1, G: 2, B: 3})

	var res struct {
		Colors []struct {
			Hex    string `json:"hex"`
			Pixels int    `json:"pixels"`
		} `json:"colors"`
		DistinctColors int `json:"distinct_colors"`
	}
	mustCall(t, s, "ppm_palette", map[string]interface{}{"path": path}, &res)
	if res.DistinctColors != 1 || len(res.Colors) != 1 || res.Colors[0].Pixels != 9 || res.Colors[0].Hex != "#010203" {
		t.Errorf("unexpected palette: %+v", res)
	}
}

type fillJSON struct {
	Origin colorJSON `json:"origin"`
	Target colorJSON `json:"target"`
	Filled int       `json:"filled"`
	NoOp   bool      `json:"no_op"`
	Bounds *struct {
		Top    int `json:"top"`
		Left   int `json:"left"`
		Bottom int `json:"bottom"`
		Right  int `json:"right"`
	} `json:"bounds"`
}

func TestHandleToolsCall_FloodFill(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 5, 4, raster.Color{})

	var res fillJSON
	mustCall(t, s, "ppm_flood_fill", map[string]interface{}{
		"path": path, "row": 1, "col": 1, "r": 0, "g": 255, "b": 0,
	}, &res)

	if res.Filled != 20 || res.NoOp {
		t.Errorf("Filled: got %d (no_op %v), want 20", res.Filled, res.NoOp)
	}
	if res.Origin.Hex != "#000000" || res.Target.Hex != "#00FF00" {
		t.Errorf("colors: got %s -> %s", res.Origin.Hex, res.Target.Hex)
	}
	if res.Bounds == nil || res.Bounds.Top != 0 || res.Bounds.Left != 0 || res.Bounds.Bottom != 3 || res.Bounds.Right != 4 {
		t.Errorf("Bounds: got %+v, want 0,0..3,4", res.Bounds)
	}

	// The change is visible to later tools and marks the image modified.
	var c colorJSON
	mustCall(t, s, "ppm_sample_color", map[string]interface{}{"path": path, "row": 3, "col": 4}, &c)
	if c.Hex != "#00FF00" {
		t.Errorf("after fill: got %s, want #00FF00", c.Hex)
	}
	var info struct {
		Modified bool `json:"modified"`
	}
	mustCall(t, s, "ppm_load", map[string]interface{}{"path": path}, &info)
	if !info.Modified {
		t.Error("image should be marked modified after a fill")
	}

	// Repeating the fill, this time by hex, is a no-op.
	var again fillJSON
	mustCall(t, s, "ppm_flood_fill", map[string]interface{}{
		"path": path, "row": 0, "col": 0, "color": "#00ff00",
	}, &again)
	if !again.NoOp || again.Filled != 0 || again.Bounds != nil {
		t.Errorf("second fill: got %+v, want no-op", again)
	}
}

func TestHandleToolsCall_FloodFillErrors(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 2, 2, raster.Color{})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing color", map[string]interface{}{"path": path, "row": 0, "col": 0}},
		{"partial channels", map[string]interface{}{"path": path, "row": 0, "col": 0, "r": 1, "g": 2}},
		{"channel too large", map[string]interface{}{"path": path, "row": 0, "col": 0, "r": 256, "g": 0, "b": 0}},
		{"negative channel", map[string]interface{}{"path": path, "row": 0, "col": 0, "r": -1, "g": 0, "b": 0}},
		{"both forms", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#FFFFFF", "r": 1, "g": 1, "b": 1}},
		{"bad hex", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#FFFFF"}},
		{"hex with alpha", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#FF000080"}},
		{"hex with trailing junk", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#ABCDEFXYZ"}},
		{"seed out of bounds", map[string]interface{}{"path": path, "row": 2, "col": 0, "color": "#FFFFFF"}},
		{"negative seed", map[string]interface{}{"path": path, "row": 0, "col": -1, "color": "#FFFFFF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if e := callTool(t, s, "ppm_flood_fill", tt.args, nil); e == nil || e.Code != -32000 {
				t.Errorf("got %+v, want -32000", e)
			}
		})
	}

	// None of the failures touched the image.
	var info struct {
		Modified bool `json:"modified"`
	}
	mustCall(t, s, "ppm_load", map[string]interface{}{"path": path}, &info)
	if info.Modified {
		t.Error("failed fills must not modify the image")
	}
}

func TestHandleToolsCall_Region(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 6, 6, raster.Color{R: 9, G: 9, B: 9})

	var res struct {
		Origin  colorJSON `json:"origin"`
		Pixels  int       `json:"pixels"`
		Preview *struct {
			Width    int    `json:"width"`
			MimeType string `json:"mime_type"`
		} `json:"preview"`
	}
	mustCall(t, s, "ppm_region", map[string]interface{}{"path": path, "row": 5, "col": 5}, &res)
	if res.Pixels != 36 || res.Origin.Hex != "#090909" {
		t.Errorf("got %d pixels of %s, want 36 of #090909", res.Pixels, res.Origin.Hex)
	}
	if res.Preview != nil {
		t.Error("preview should be omitted unless requested")
	}

	mustCall(t, s, "ppm_region", map[string]interface{}{"path": path, "row": 0, "col": 0, "preview": true}, &res)
	if res.Preview == nil || res.Preview.Width != 6 || res.Preview.MimeType != "image/png" {
		t.Errorf("unexpected preview: %+v", res.Preview)
	}

	var info struct {
		Modified bool `json:"modified"`
	}
	mustCall(t, s, "ppm_load", map[string]interface{}{"path": path}, &info)
	if info.Modified {
		t.Error("ppm_region must not modify the image")
	}

	if e := callTool(t, s, "ppm_region", map[string]interface{}{"path": path, "row": 6, "col": 0}, nil); e == nil {
		t.Error("out-of-bounds seed should fail")
	}
}

func TestHandleToolsCall_ConvertAndSave(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 3, 2, raster.Color{R: 10, G: 20, B: 30})

	if e := callTool(t, s, "ppm_save", map[string]interface{}{"path": path}, nil); e == nil {
		t.Error("saving an image that was never loaded should fail")
	}

	var conv struct {
		Format   string `json:"format"`
		Previous string `json:"previous"`
		Changed  bool   `json:"changed"`
	}
	mustCall(t, s, "ppm_convert", map[string]interface{}{"path": path, "format": "p3"}, &conv)
	if conv.Format != "P3" || conv.Previous != "P6" || !conv.Changed {
		t.Errorf("unexpected convert result: %+v", conv)
	}
	if e := callTool(t, s, "ppm_convert", map[string]interface{}{"path": path, "format": "p5"}, nil); e == nil {
		t.Error("unknown format should fail")
	}

	mustCall(t, s, "ppm_flood_fill", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#FF0000"}, nil)

	var saved struct {
		Path   string `json:"path"`
		Format string `json:"format"`
	}
	mustCall(t, s, "ppm_save", map[string]interface{}{"path": path}, &saved)
	if saved.Path != path || saved.Format != "P3" {
		t.Errorf("unexpected save result: %+v", saved)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n3 2\n255\n255\n0\n0\n") {
		t.Errorf("unexpected file contents:\n%s", data)
	}

	// Save a binary copy elsewhere.
	dest := filepath.Join(t.TempDir(), "copy.ppm.zst")
	mustCall(t, s, "ppm_save", map[string]interface{}{"path": path, "dest": dest, "format": "p6"}, &saved)
	m, err := ppm.ReadFile(dest, 0)
	if err != nil {
		t.Fatalf("failed to read copy: %v", err)
	}
	if m.Encoding != raster.Binary || m.At(1, 2) != (raster.Color{R: 255}) {
		t.Errorf("copy: encoding %v, At(1,2) = %v", m.Encoding, m.At(1, 2))
	}

	if e := callTool(t, s, "ppm_save", map[string]interface{}{"path": path, "format": "jpeg"}, nil); e == nil {
		t.Error("unknown save format should fail")
	}
}

func TestHandleToolsCall_Unload(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 2, 2, raster.Color{})

	var res struct {
		Evicted          bool `json:"evicted"`
		DiscardedChanges bool `json:"discarded_changes"`
	}
	mustCall(t, s, "ppm_unload", map[string]interface{}{"path": path}, &res)
	if res.Evicted {
		t.Error("nothing should be evicted before a load")
	}

	mustCall(t, s, "ppm_flood_fill", map[string]interface{}{"path": path, "row": 0, "col": 0, "color": "#123456"}, nil)
	mustCall(t, s, "ppm_unload", map[string]interface{}{"path": path}, &res)
	if !res.Evicted || !res.DiscardedChanges {
		t.Errorf("got %+v, want evicted with discarded changes", res)
	}

	// The file on disk never saw the fill.
	var c colorJSON
	mustCall(t, s, "ppm_sample_color", map[string]interface{}{"path": path, "row": 0, "col": 0}, &c)
	if c.Hex != "#000000" {
		t.Errorf("after unload: got %s, want #000000", c.Hex)
	}
}

func TestHandleToolsCall_Preview(t *testing.T) {
	s := newTestServer(t)
	path := createTestPPM(t, 1000, 500, raster.Color{R: 200})

	var res struct {
		Width        int     `json:"width"`
		Height       int     `json:"height"`
		SourceWidth  int     `json:"source_width"`
		Scale        float64 `json:"scale"`
		ImageBase64  string  `json:"image_base64"`
		MimeType     string  `json:"mime_type"`
	}
	// Default size comes from configuration (512).
	mustCall(t, s, "ppm_preview", map[string]interface{}{"path": path}, &res)
	if res.Width != 512 || res.Height != 256 || res.SourceWidth != 1000 {
		t.Errorf("got %dx%d from %d, want 512x256 from 1000", res.Width, res.Height, res.SourceWidth)
	}
	if res.ImageBase64 == "" || res.MimeType != "image/png" {
		t.Error("preview should carry a PNG")
	}

	mustCall(t, s, "ppm_preview", map[string]interface{}{
		"path": path, "max_size": 100, "region": "top-left", "grid_spacing": 50,
	}, &res)
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("got %dx%d, want 100x50", res.Width, res.Height)
	}

	if e := callTool(t, s, "ppm_preview", map[string]interface{}{"path": path, "region": "upside"}, nil); e == nil {
		t.Error("unknown region should fail")
	}
}

func TestHandleToolsCall_Import(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "photo.png")
	img := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("failed to create png: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	f.Close()

	dest := filepath.Join(dir, "photo.ppm")
	var res struct {
		SourceFormat string `json:"source_format"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Format       string `json:"format"`
	}
	mustCall(t, s, "ppm_import", map[string]interface{}{"path": src, "dest": dest, "format": "p3"}, &res)
	if res.SourceFormat != "png" || res.Width != 5 || res.Height != 3 || res.Format != "P3" {
		t.Errorf("unexpected import result: %+v", res)
	}

	// The converted file is immediately usable by the other tools.
	var fill fillJSON
	mustCall(t, s, "ppm_flood_fill", map[string]interface{}{"path": dest, "row": 2, "col": 4, "color": "#FFFFFF"}, &fill)
	if fill.Filled != 15 || fill.Origin.Hex != "#0A141E" {
		t.Errorf("fill after import: got %d pixels from %s", fill.Filled, fill.Origin.Hex)
	}

	if e := callTool(t, s, "ppm_import", map[string]interface{}{"path": dest, "dest": dest + ".txt", "format": "p9"}, nil); e == nil {
		t.Error("unknown format should fail")
	}
	if e := callTool(t, s, "ppm_import", map[string]interface{}{"path": filepath.Join(dir, "missing.png"), "dest": dest}, nil); e == nil {
		t.Error("missing source should fail")
	}
}
