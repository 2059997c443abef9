package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to a .ppm file, optionally compressed as .ppm.gz or .ppm.zst",
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func pointSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty(),
		"row":  intProperty("Row of the pixel, 0 = top"),
		"col":  intProperty("Column of the pixel, 0 = left"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"path", "row", "col"}, required...),
	}
}

func pathSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"path"}, required...),
	}
}

var formatProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"p3", "p6"},
	"description": "p3 for plain text samples, p6 for binary samples",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image lifecycle
		{
			Name:        "ppm_load",
			Description: "Load a PPM image (P3 or P6) into memory and return its dimensions, format, max value, header comment and whether it has unsaved edits. Later tools operate on this in-memory copy.",
			InputSchema: pathSchema(nil),
		},
		{
			Name:        "ppm_dimensions",
			Description: "Get the width (columns) and height (rows) of a PPM image.",
			InputSchema: pathSchema(nil),
		},
		{
			Name:        "ppm_save",
			Description: "Write the in-memory image to disk, replacing the original file or writing to dest. The file is replaced atomically. A .gz or .zst destination is compressed.",
			InputSchema: pathSchema(map[string]interface{}{
				"dest": map[string]interface{}{
					"type":        "string",
					"description": "Optional destination path. Default: overwrite path",
				},
				"format": formatProperty,
			}),
		},
		{
			Name:        "ppm_unload",
			Description: "Drop an image from memory, discarding unsaved edits.",
			InputSchema: pathSchema(nil),
		},

		{
			Name:        "ppm_import",
			Description: "Convert a PNG, JPEG or GIF file to PPM at dest so it can be flood filled. Transparency is dropped.",
			InputSchema: pathSchema(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source image",
				},
				"dest": map[string]interface{}{
					"type":        "string",
					"description": "Path of the PPM file to create (.ppm, .ppm.gz or .ppm.zst)",
				},
				"format": formatProperty,
			}, "dest"),
		},

		// Color inspection
		{
			Name:        "ppm_sample_color",
			Description: "Get the exact color of a pixel as hex, RGB and HSL.",
			InputSchema: pointSchema(nil),
		},
		{
			Name:        "ppm_sample_colors_multi",
			Description: "Sample colors at multiple pixels in one call.",
			InputSchema: pathSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row":   map[string]interface{}{"type": "integer"},
							"col":   map[string]interface{}{"type": "integer"},
							"label": map[string]interface{}{"type": "string"},
						},
						"required": []string{"row", "col"},
					},
					"description": "Pixels to sample, with optional labels",
				},
			}, "points"),
		},
		{
			Name:        "ppm_palette",
			Description: "List the most frequent exact colors in the image with pixel counts.",
			InputSchema: pathSchema(map[string]interface{}{
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of colors to return (default 5)",
					"default":     5,
				},
			}),
		},

		// Editing
		{
			Name:        "ppm_flood_fill",
			Description: "Replace the 4-connected region of uniform color containing (row, col) with a new color. Give the color as hex or as r, g and b. The change stays in memory until ppm_save.",
			InputSchema: pointSchema(map[string]interface{}{
				"color": map[string]interface{}{
					"type":        "string",
					"description": "Target color as #RRGGBB",
				},
				"r": intProperty("Target red channel, 0-255"),
				"g": intProperty("Target green channel, 0-255"),
				"b": intProperty("Target blue channel, 0-255"),
			}),
		},
		{
			Name:        "ppm_region",
			Description: "Report the region a flood fill at (row, col) would recolor, without changing the image. Optionally returns a PNG preview with the region highlighted.",
			InputSchema: pointSchema(map[string]interface{}{
				"preview": map[string]interface{}{
					"type":        "boolean",
					"description": "Include a highlighted PNG preview",
				},
				"max_size":        intProperty("Longest edge of the preview in pixels (default from configuration)"),
				"highlight_color": map[string]interface{}{"type": "string", "description": "Highlight tint as #RRGGBB (default #FF00FF)"},
			}),
		},
		{
			Name:        "ppm_convert",
			Description: "Choose the encoding used when the image is next saved. Pixel data is unchanged.",
			InputSchema: pathSchema(map[string]interface{}{
				"format": formatProperty,
			}, "format"),
		},

		// Rendering
		{
			Name:        "ppm_preview",
			Description: "Render the in-memory image as a base64 PNG, optionally cropped to a named region and overlaid with a row,col grid.",
			InputSchema: pathSchema(map[string]interface{}{
				"max_size": intProperty("Longest edge of the preview in pixels (default from configuration)"),
				"region": map[string]interface{}{
					"type": "string",
					"enum": []string{
						"top-left", "top-right", "bottom-left", "bottom-right",
						"top-half", "bottom-half", "left-half", "right-half", "center",
					},
					"description": "Named region to show instead of the whole image",
				},
				"grid_spacing": intProperty("Draw a grid every N source pixels (0 = no grid)"),
				"grid_color": map[string]interface{}{
					"type":        "string",
					"description": "Grid line color as #RRGGBB (default #FF0000)",
				},
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
