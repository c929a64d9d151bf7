package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/imaging"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sudoku_extract").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return okResponse(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(result)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "sudoku_extract":
		return s.handleExtract(ctx, args)
	case "sudoku_locate_grid":
		return s.handleLocateGrid(args)
	case "sudoku_binarize":
		return s.handleBinarize(args)
	case "sudoku_cells_overlay":
		return s.handleCellsOverlay(ctx, args)
	case "sudoku_validate":
		return s.handleValidate(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response. An empty data is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return fmt.Errorf("missing arguments")
	}
	return json.Unmarshal(args, v)
}

func requirePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// === Extraction ===

type extractArgs struct {
	Path     string `json:"path"`
	Strategy string `json:"strategy"`
	Refresh  bool   `json:"refresh"`
}

// ExtractResult is returned by sudoku_extract.
type ExtractResult struct {
	Source     string              `json:"source"`
	Rows       [][]string          `json:"rows"`
	Preview    string              `json:"preview"`
	Filled     int                 `json:"filled"`
	Decision   grid.Decision       `json:"decision"`
	Cells      []sudoku.CellResult `json:"cells"`
	Conflicts  []sudoku.Conflict   `json:"conflicts,omitempty"`
	DurationMS int64               `json:"duration_ms"`
}

func (s *Server) extract(ctx context.Context, path, strategy string) (*pipeline.Result, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	st, err := parseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return s.extractor.WithStrategy(st).Process(ctx, path)
}

func (s *Server) handleExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Refresh {
		s.cache.Evict(a.Path)
	}
	res, err := s.extract(ctx, a.Path, a.Strategy)
	if err != nil {
		return nil, err
	}
	return &ExtractResult{
		Source:     res.Source,
		Rows:       res.Grid.Rows(),
		Preview:    res.Grid.Preview(),
		Filled:     res.Grid.Filled(),
		Decision:   res.Decision,
		Cells:      res.Cells,
		Conflicts:  res.Grid.Conflicts(),
		DurationMS: res.Duration.Milliseconds(),
	}, nil
}

// === Grid location ===

type locateArgs struct {
	Path     string `json:"path"`
	Strategy string `json:"strategy"`
}

// LocateResult is returned by sudoku_locate_grid. Coordinates refer to the
// preprocessed image, which is the source upscaled when it is small.
type LocateResult struct {
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Found    bool          `json:"found"`
	Coverage float64       `json:"coverage"`
	Decision grid.Decision `json:"decision"`
}

func (s *Server) handleLocateGrid(args json.RawMessage) (interface{}, error) {
	var a locateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	st, err := parseStrategy(a.Strategy)
	if err != nil {
		return nil, err
	}
	if st == "" {
		st = grid.StrategyAuto
	}
	bin, err := s.mask(a.Path)
	if err != nil {
		return nil, err
	}

	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	res := &LocateResult{Width: w, Height: h}
	if q, ok := s.locator.Locate(bin); ok {
		res.Found = true
		res.Coverage = q.Area() / float64(w*h)
	}
	_, res.Decision = grid.Square(bin, s.locator, st)
	return res, nil
}

// === Binarization ===

type binarizeArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleBinarize(args json.RawMessage) (interface{}, error) {
	var a binarizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	bin, err := s.mask(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Encode(bin)
}

func (s *Server) mask(path string) (*image.Gray, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrUnreadableImage, path, err)
	}
	_, bin := pipeline.Preprocess(img)
	return bin, nil
}

// === Overlay ===

type overlayArgs struct {
	Path       string `json:"path"`
	Strategy   string `json:"strategy"`
	LineColor  string `json:"line_color"`
	DigitColor string `json:"digit_color"`
}

// OverlayResult is returned by sudoku_cells_overlay.
type OverlayResult struct {
	*imaging.EncodedImage
	Preview string `json:"preview"`
}

func (s *Server) handleCellsOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.extract(ctx, a.Path, a.Strategy)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(imaging.CellOverlay(res.Square, res.Grid[:], a.LineColor, a.DigitColor))
	if err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: enc, Preview: res.Grid.Preview()}, nil
}

// === Validation ===

type validateArgs struct {
	Grid string `json:"grid"`
}

// ValidateResult is returned by sudoku_validate.
type ValidateResult struct {
	Valid     bool              `json:"valid"`
	Solved    bool              `json:"solved"`
	Filled    int               `json:"filled"`
	Conflicts []sudoku.Conflict `json:"conflicts"`
	Messages  []string          `json:"messages,omitempty"`
	Preview   string            `json:"preview"`
}

func (s *Server) handleValidate(args json.RawMessage) (interface{}, error) {
	var a validateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	g, err := sudoku.ParseGrid(a.Grid)
	if err != nil {
		return nil, err
	}
	conflicts := g.Conflicts()
	res := &ValidateResult{
		Valid:     len(conflicts) == 0,
		Solved:    g.Solved(),
		Filled:    g.Filled(),
		Conflicts: conflicts,
		Preview:   g.Preview(),
	}
	if res.Conflicts == nil {
		res.Conflicts = []sudoku.Conflict{}
	}
	for _, c := range conflicts {
		res.Messages = append(res.Messages, c.String())
	}
	return res, nil
}

// parseStrategy accepts an empty string, which keeps the server default.
func parseStrategy(s string) (grid.Strategy, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return grid.ParseStrategy(s)
}
