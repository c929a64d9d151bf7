package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ironsheep/sudoku-extractor/internal/config"
	"github.com/ironsheep/sudoku-extractor/internal/logging"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sudoku-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("sudoku-mcp - MCP server that reads Sudoku puzzles from photos")
			fmt.Println()
			fmt.Println("Usage: sudoku-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SUDOKU_LOG_LEVEL=debug         Enable debug logging")
			fmt.Println("  SUDOKU_OCR_BACKEND=tesseract   Recognition backend (tesseract, ollama, gemini, onnx)")
			fmt.Println("  SUDOKU_STRATEGY=pad            Grid squaring strategy (pad, perspective, auto)")
			fmt.Println()
			fmt.Println("Settings may also come from sudoku.yaml in the working directory.")
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout is for MCP protocol
	logger := logging.New(os.Stderr, cfg.LogLevel, false)
	logger.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("sudoku MCP server")

	rec, err := ocr.New(ctx, cfg.OCROptions())
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.OCR.Backend).Msg("create recognizer")
	}
	defer rec.Close()

	opts := cfg.PipelineOptions()
	opts.Observer = logging.Observer(logger)

	srv := server.New(rec, opts, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("server error")
		rec.Close()
		os.Exit(1)
	}
}
