package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
	"github.com/ironsheep/sudoku-extractor/internal/imaging"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
)

// Name, Version and ProtocolVersion are reported in the initialize handshake.
const (
	Name            = "sudoku-extractor"
	Version         = "0.1.0"
	ProtocolVersion = "2024-11-05"
)

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	extractor *pipeline.Extractor
	locator   detection.Locator
	logger    zerolog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server that recognizes cells with rec. The extractor reads
// images through the server's cache; opts.Loader is ignored.
func New(rec ocr.Recognizer, opts pipeline.Options, logger zerolog.Logger) *Server {
	s := &Server{
		cache:   imaging.NewImageCache(),
		locator: opts.Locator,
		logger:  logger,
	}
	if s.locator == nil {
		s.locator = detection.ContourLocator{}
	}
	opts.Loader = s.cache.Load
	s.extractor = pipeline.New(rec, opts)
	return s
}

// Run serves requests from stdin until it is closed.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one request per line from r and writes responses to w. It
// returns when r is exhausted or ctx is canceled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error().Err(err).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers. Notifications
// carry no ID and never get a response.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return okResponse(req.ID, map[string]interface{}{})
	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// instructions tells the client how the tools fit together.
const instructions = "Call sudoku_extract with the absolute path of a puzzle photo to read its 81 cells. " +
	"If cells look wrong, sudoku_cells_overlay shows what was read where and sudoku_locate_grid " +
	"shows whether the grid boundary was found; retry sudoku_extract with another strategy. " +
	"sudoku_validate checks a corrected grid for repeated digits."

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return okResponse(req.ID, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    Name,
			"version": Version,
		},
		"instructions": instructions,
	})
}

func okResponse(id interface{}, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: "2.0", ID: id, Result: result}
}
