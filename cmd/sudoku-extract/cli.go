package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/sudoku-extractor/internal/config"
	"github.com/ironsheep/sudoku-extractor/internal/detection"
	"github.com/ironsheep/sudoku-extractor/internal/logging"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
	"github.com/ironsheep/sudoku-extractor/internal/report"
)

const name = "sudoku-extract"

// CLI holds the parsed command line. Flags left unset keep the value from
// the config file or environment.
type CLI struct {
	stdout, stderr io.Writer

	output     string
	debug      bool
	batch      bool
	strategy   string
	locator    string
	backend    string
	workers    int
	configPath string
	logLevel   string
	version    bool

	newRecognizer func(context.Context, ocr.Options) (ocr.Recognizer, error)
}

func NewCLI(stdout, stderr io.Writer) *CLI {
	return &CLI{
		stdout:        stdout,
		stderr:        stderr,
		newRecognizer: ocr.New,
	}
}

func (c *CLI) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	fs.StringVar(&c.output, "o", "", "Output file (single image) or directory (batch)")
	fs.StringVar(&c.output, "output", "", "Same as -o")
	fs.BoolVar(&c.debug, "d", false, "Save intermediate images (debug_*.png)")
	fs.BoolVar(&c.debug, "debug", false, "Same as -d")
	fs.BoolVar(&c.batch, "batch", false, "Process every image in a directory")
	fs.StringVar(&c.strategy, "strategy", "", "Grid squaring strategy: pad, perspective or auto")
	fs.StringVar(&c.locator, "locator", "", "Grid boundary locator: "+strings.Join(detection.LocatorNames(), ", "))
	fs.StringVar(&c.backend, "backend", "", "Recognition backend: tesseract, ollama, gemini or onnx")
	fs.IntVar(&c.workers, "workers", 0, "Cells recognized in parallel")
	fs.StringVar(&c.configPath, "config", "", "Config file (default: sudoku.yaml in . or the user config dir)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.BoolVar(&c.version, "version", false, "Print version information")
	fs.BoolVar(&c.version, "v", false, "Same as -version")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "%s - read a Sudoku photo into a spreadsheet\n\n", name)
		fmt.Fprintf(fs.Output(), "Usage: %s [options] <image|directory>\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// Run executes the command and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	fs := c.flagSet()
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if c.version {
		fmt.Fprintf(c.stdout, "%s %s\n", name, Version)
		fmt.Fprintf(c.stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(c.stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	if len(positional) == 0 {
		fs.SetOutput(c.stdout)
		fs.Usage()
		fmt.Fprintln(c.stdout)
		fmt.Fprintln(c.stdout, "Examples:")
		fmt.Fprintf(c.stdout, "  %s sudoku.png\n", name)
		fmt.Fprintf(c.stdout, "  %s sudoku.png -o output.xlsx\n", name)
		fmt.Fprintf(c.stdout, "  %s --batch ./images/\n", name)
		return 0
	}
	input := positional[0]

	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}
	c.applyFlags(fs, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 2
	}

	logger := logging.New(c.stderr, cfg.LogLevel, true)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("loaded config")
	}

	info, err := os.Stat(input)
	if err != nil {
		logger.Error().Str("path", input).Msg("path not found")
		return 1
	}
	if info.IsDir() && !c.batch {
		logger.Warn().Str("path", input).Msg("input is a directory, use --batch for batch processing")
		return 0
	}

	rec, err := c.newRecognizer(ctx, cfg.OCROptions())
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.OCR.Backend).Msg("failed to start recognizer")
		return 1
	}
	defer rec.Close()

	opts := cfg.PipelineOptions()
	opts.Observer = logging.Observer(logger)
	ex := pipeline.New(rec, opts)
	logger.Debug().
		Str("backend", rec.Name()).
		Str("strategy", string(ex.Strategy())).
		Int("workers", cfg.Workers).
		Msg("starting")

	if info.IsDir() {
		return c.runBatch(ctx, ex, logger, input)
	}
	return c.runSingle(ctx, ex, logger, input)
}

// parseInterspersed parses flags that may appear before or after the
// positional arguments, as in "sudoku-extract puzzle.png -o out.xlsx".
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// applyFlags copies explicitly set flags over the loaded configuration.
func (c *CLI) applyFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d", "debug":
			cfg.Debug = c.debug
		case "strategy":
			cfg.Strategy = c.strategy
		case "locator":
			cfg.Locator = c.locator
		case "backend":
			cfg.OCR.Backend = c.backend
		case "workers":
			cfg.Workers = c.workers
		case "log-level":
			cfg.LogLevel = c.logLevel
		}
	})
}

func (c *CLI) runSingle(ctx context.Context, ex *pipeline.Extractor, logger zerolog.Logger, input string) int {
	res, err := ex.Process(ctx, input)
	if err != nil {
		return 1
	}
	c.printPreview(res)

	out := c.output
	if out == "" {
		out = report.DefaultOutputPath(input)
	}
	if err := writeSheet(out, res); err != nil {
		logger.Error().Err(err).Msg("failed to write output")
		return 1
	}
	logger.Info().Str("output", out).Msg("saved")
	return 0
}

func (c *CLI) runBatch(ctx context.Context, ex *pipeline.Extractor, logger zerolog.Logger, dir string) int {
	outDir := c.output
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", outDir).Msg("failed to create output directory")
		return 1
	}

	rep, err := ex.Batch(ctx, dir, func(res *pipeline.Result) error {
		c.printPreview(res)
		out := filepath.Join(outDir, filepath.Base(report.DefaultOutputPath(res.Source)))
		if err := writeSheet(out, res); err != nil {
			return err
		}
		logger.Info().Str("output", out).Msg("saved")
		return nil
	})
	if err != nil && rep == nil {
		logger.Error().Err(err).Str("dir", dir).Msg("batch failed")
		return 1
	}
	if rep.Total == 0 {
		logger.Error().Str("dir", dir).Msg("no images found")
		return 1
	}

	logger.Info().
		Int("total", rep.Total).
		Int("succeeded", len(rep.Succeeded)).
		Int("failed", len(rep.Failures)).
		Msg("batch complete")

	if err != nil || len(rep.Failures) > 0 {
		return 1
	}
	return 0
}

func (c *CLI) printPreview(res *pipeline.Result) {
	fmt.Fprintf(c.stdout, "%s (%d/81 filled)\n", res.Source, res.Grid.Filled())
	for _, line := range strings.Split(strings.TrimRight(res.Grid.Preview(), "\n"), "\n") {
		fmt.Fprintf(c.stdout, "  %s\n", line)
	}
	for _, conflict := range res.Grid.Conflicts() {
		fmt.Fprintf(c.stdout, "  ! %s\n", conflict)
	}
	fmt.Fprintln(c.stdout)
}

func writeSheet(path string, res *pipeline.Result) error {
	return report.Write(path, report.Sheet{
		Grid:        res.Grid,
		Source:      res.Source,
		ExtractedAt: res.ExtractedAt,
	})
}
