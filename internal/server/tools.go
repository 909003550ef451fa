package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared argument schemas.

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func nativeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Run detection at the image's own resolution instead of a 500 pixel high working copy. Slower but more precise. Default false",
		"default":     false,
	}
}

func channelOrderProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"rgba", "bgra"},
		"description": "Channel order of the pixel data. Use bgra for raw captures stored blue-first. Default from server configuration",
	}
}

func paramsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Detection overrides: reference_height, resample_filter, blur_radius, morph_radius, canny_low, canny_high, epsilon_factor, min_size_divisor, min_contour_area, max_candidates",
	}
}

func outputPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional file to write the image to. The format follows the extension. When omitted the image is returned as base64 PNG",
	}
}

func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent document tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Document Operations
		{
			Name:        "document_detect",
			Description: "Find the corners of a document (sheet, receipt, card) in a photo. Returns found=false when no plausible page is visible. Corners are in image pixels, ordered top-left, top-right, bottom-right, bottom-left.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"native":        nativeProperty(),
					"channel_order": channelOrderProperty(),
					"params":        paramsProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_rectify",
			Description: "Warp the quadrilateral given by four corners into a flat, upright image. Corners may come from document_detect or be adjusted by hand, optionally on a preview of a different size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"corners": map[string]interface{}{
						"type":        "array",
						"items":       pointSchema(),
						"minItems":    4,
						"maxItems":    4,
						"description": "Four corners ordered top-left, top-right, bottom-right, bottom-left",
					},
					"reference_width": map[string]interface{}{
						"type":        "number",
						"description": "Width of the image the corners were picked on. Omit if they are in this image's pixels",
					},
					"reference_height": map[string]interface{}{
						"type":        "number",
						"description": "Height of the image the corners were picked on",
					},
					"reorder": map[string]interface{}{
						"type":        "boolean",
						"description": "Sort the corners into top-left, top-right, bottom-right, bottom-left order first. Default false",
						"default":     false,
					},
					"channel_order": channelOrderProperty(),
					"output_path":   outputPathProperty(),
				},
				"required": []string{"path", "corners"},
			},
		},
		{
			Name:        "document_scan",
			Description: "Detect the document, rectify it and optionally enhance it for a scanned look, in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"native": nativeProperty(),
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Binarise the rectified page with an adaptive threshold. Default false",
						"default":     false,
					},
					"channel_order": channelOrderProperty(),
					"params":        paramsProperty(),
					"output_path":   outputPathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_enhance",
			Description: "Binarise an image with an adaptive mean threshold so text stands out on a white page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd window size for the local mean. Default 15",
					},
					"offset": map[string]interface{}{
						"type":        "number",
						"description": "Subtracted from the local mean before comparing. Default 15",
					},
					"channel_order": channelOrderProperty(),
					"output_path": outputPathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_edges",
			Description: "Return the cleaned edge map the document detector traces contours on. Useful to see why a page was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"native":        nativeProperty(),
					"channel_order": channelOrderProperty(),
					"params":        paramsProperty(),
					"output_path":   outputPathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_overlay",
			Description: "Detect the document and draw its outline with labelled corners onto the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"native":        nativeProperty(),
					"channel_order": channelOrderProperty(),
					"params":        paramsProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as #RRGGBB. Default from server configuration",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Line thickness in pixels. Default 3",
						"default":     3,
					},
					"output_path": outputPathProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList answers tools/list with GetToolDefinitions.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return resultResponse(req.ID, map[string]interface{}{"tools": GetToolDefinitions()})
}
