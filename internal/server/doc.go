// Package server implements the MCP (Model Context Protocol) server that
// exposes the puzzle extractor as tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - sudoku_extract: read the 81 cells of a puzzle photo
//   - sudoku_locate_grid: report the grid boundary and the squaring decision
//   - sudoku_binarize: return the binary mask as a PNG
//   - sudoku_cells_overlay: return the squared grid with cell lines and digits drawn on it
//   - sudoku_validate: check a typed-in grid for duplicate digits
//
// # Image Caching
//
// Images are cached by path and reused across tool calls, so an agent can
// locate, binarize and extract the same photo while decoding it once. Pass
// "refresh": true to sudoku_extract to re-read a file that changed on disk.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string in data.
package server
