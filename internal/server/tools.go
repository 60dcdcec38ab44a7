package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func indexProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Row index (0-based, in annotations.csv order)",
	}
}

func scaleProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 0.5 to halve the size). Default 1.0",
		"default":     1.0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "dataset_summary",
			Description: "Summarise the dataset: number of rows and annotations, and how many boxes carry each label.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "dataset_row",
			Description: "Get one row: its image path, image size and format, and its annotations with pixel rectangles.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProperty(),
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        "dataset_row_overlay",
			Description: "Get a row's photo with its ground-truth boxes drawn on top, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProperty(),
					"scale": scaleProperty(),
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        "dataset_crop_annotation",
			Description: "Crop the region of one annotation out of a row's photo and return it as base64-encoded PNG. Use this to check that a box and its label match.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProperty(),
					"annotation": map[string]interface{}{
						"type":        "integer",
						"description": "Annotation index within the row (0-based)",
					},
					"scale": scaleProperty(),
				},
				"required": []string{"index", "annotation"},
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
