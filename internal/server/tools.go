package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the puzzle image (png, jpg, bmp, tiff, webp)",
}

var strategyProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"pad", "perspective", "auto"},
	"description": "How the grid is squared before splitting. pad centers the whole mask on a square canvas; perspective warps the located boundary; auto warps only when the boundary covers enough of the image. Default pad",
	"default":     "pad",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "sudoku_extract",
			Description: "Read a Sudoku puzzle from a photo. Returns the 81 cell values row by row (empty string for blank cells), a text preview, and how each cell was decided.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"strategy": strategyProperty,
					"refresh": map[string]interface{}{
						"type":        "boolean",
						"description": "Re-read the file even if it is cached. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sudoku_locate_grid",
			Description: "Find the outer boundary of the puzzle grid. Returns the four corners in upscaled image coordinates, the share of the image they cover, and which squaring path a strategy would take.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"strategy": strategyProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sudoku_binarize",
			Description: "Return the binary mask the grid is located in, as base64-encoded PNG. Ink is white on black.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sudoku_cells_overlay",
			Description: "Extract the puzzle and return the squared grid with the cell lines and the recognized digits drawn over it, as base64-encoded PNG. Use this to see why a cell was misread.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"strategy": strategyProperty,
					"line_color": map[string]interface{}{
						"type":        "string",
						"description": "Cell line color as hex. Default #ff3030",
						"default":     "#ff3030",
					},
					"digit_color": map[string]interface{}{
						"type":        "string",
						"description": "Digit color as hex. Default #1e64ff",
						"default":     "#1e64ff",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sudoku_validate",
			Description: "Check a grid for repeated digits in any row, column or 3x3 box. The grid is 81 characters: 1-9 for digits and '.', '0' or '_' for blanks; whitespace and the separators , | - + are ignored.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"grid": map[string]interface{}{
						"type":        "string",
						"description": "The 81 cells, row by row",
					},
				},
				"required": []string{"grid"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return okResponse(req.ID, map[string]interface{}{"tools": GetToolDefinitions()})
}
