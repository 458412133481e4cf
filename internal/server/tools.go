package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a sheet photo and return its dimensions and format. The decoded photo is cached for the other tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
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
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Answer Key
		{
			Name: "omr_load_key",
			Description: "Load an answer key file (.xlsx, .csv or .json) and make it the active key. " +
				"Each column is a subject; each cell reads '<question>-<answer>' such as '12-b' or '7-a,c'. " +
				"A column named 'Total' is ignored. Malformed cells are skipped and reported as warnings. " +
				"If no cell is valid the previous key stays active.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the key file"),
				},
				"required": []string{"path"},
			},
		},

		// Grading
		{
			Name: "omr_evaluate",
			Description: "Grade a photographed answer sheet. Finds the sheet, straightens it, reads the filled bubbles " +
				"and scores them against the active answer key. Returns per-subject scores with a 'Total', " +
				"the detected answers and a per-question breakdown. Pass key_path to load a new key in the same call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty("Absolute path to the sheet photo"),
					"key_path": pathProperty("Optional answer key file to load before scoring"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_normalize",
			Description: "Find the answer sheet in a photo and warp it to the canonical size. Returns the detected corners and, optionally, the straightened and equalized sheet as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet photo"),
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the normalized sheet as base64 PNG. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_detect_answers",
			Description: "Read the filled bubbles of a sheet photo without scoring. Returns answers per question, every filled option per question, and the questions rejected for multiple marks.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet photo"),
					"include_candidates": map[string]interface{}{
						"type":        "boolean",
						"description": "Include every bubble-sized blob with its fill ratio. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_grid_overlay",
			Description: "Draw the bubble layout over the normalized sheet and fill the bubbles read as marked. Use this to check that the layout lines up with the printed sheet.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet photo"),
					"outline_color": map[string]interface{}{
						"type":        "string",
						"description": "Cell outline color in hex format (e.g., '#FF0000'). Default '#FF0000'",
						"default":     "#FF0000",
					},
					"mark_color": map[string]interface{}{
						"type":        "string",
						"description": "Fill color for marked bubbles, with optional alpha (e.g., '#00C80080'). Default '#00C800'",
						"default":     "#00C800",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_read_header",
			Description: "OCR the printed header strip of a sheet (name, roll number). Returns the text, a label (roll number if found) and word boxes in sheet coordinates. Requires a build with Tesseract.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet photo"),
				},
				"required": []string{"path"},
			},
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
