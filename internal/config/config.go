// Package config loads settings from defaults, an optional config file and
// SUDOKU_* environment variables, in increasing order of precedence.
// Command-line flags are applied on top by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// EnvPrefix prefixes every environment variable, e.g. SUDOKU_OCR_BACKEND.
const EnvPrefix = "SUDOKU"

// FileName is the config file base name searched for when no explicit
// path is given. Any extension viper understands works (yaml, toml, json).
const FileName = "sudoku"

// OCR configures the recognition backend.
type OCR struct {
	Backend         string        `mapstructure:"backend"`
	Language        string        `mapstructure:"language"`
	OllamaURL       string        `mapstructure:"ollama_url"`
	OllamaModel     string        `mapstructure:"ollama_model"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	ONNXModelPath   string        `mapstructure:"onnx_model"`
	ONNXLibraryPath string        `mapstructure:"onnx_library"`
	ONNXInputName   string        `mapstructure:"onnx_input"`
	ONNXOutputName  string        `mapstructure:"onnx_output"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Config is the full application configuration.
type Config struct {
	LogLevel       string        `mapstructure:"log_level"`
	Strategy       string        `mapstructure:"strategy"`
	Locator        string        `mapstructure:"locator"`
	Workers        int           `mapstructure:"workers"`
	CellTimeout    time.Duration `mapstructure:"cell_timeout"`
	LightCutoff    int           `mapstructure:"light_cutoff"`
	EmptyThreshold float64       `mapstructure:"empty_threshold"`
	Debug          bool          `mapstructure:"debug"`
	DebugDir       string        `mapstructure:"debug_dir"`
	HTTPAddr       string        `mapstructure:"http_addr"`
	OCR            OCR           `mapstructure:"ocr"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("strategy", string(grid.DefaultStrategy))
	v.SetDefault("locator", detection.DefaultLocator)
	v.SetDefault("workers", 1)
	v.SetDefault("cell_timeout", time.Duration(0))
	v.SetDefault("light_cutoff", sudoku.DefaultLightCutoff)
	v.SetDefault("empty_threshold", sudoku.DefaultEmptyThreshold)
	v.SetDefault("debug", false)
	v.SetDefault("debug_dir", pipeline.DefaultDebugDir)
	v.SetDefault("http_addr", ":8080")

	v.SetDefault("ocr.backend", ocr.DefaultBackend)
	v.SetDefault("ocr.language", ocr.DefaultLanguage)
	v.SetDefault("ocr.ollama_url", "")
	v.SetDefault("ocr.ollama_model", "")
	v.SetDefault("ocr.gemini_api_key", "")
	v.SetDefault("ocr.gemini_model", "")
	v.SetDefault("ocr.onnx_model", "")
	v.SetDefault("ocr.onnx_library", "")
	v.SetDefault("ocr.onnx_input", "")
	v.SetDefault("ocr.onnx_output", "")
	v.SetDefault("ocr.timeout", 30*time.Second)
}

// Load reads the configuration. With an explicit path the file must exist;
// otherwise "sudoku.*" is looked up in the working directory and in the
// user config directory, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "sudoku-extractor"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. It is called by Load and should be called
// again after flags have been applied.
func (c *Config) Validate() error {
	if _, err := grid.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := detection.NewLocator(c.Locator); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CellTimeout < 0 {
		return fmt.Errorf("cell_timeout must not be negative, got %s", c.CellTimeout)
	}
	if c.LightCutoff < 1 || c.LightCutoff > 254 {
		return fmt.Errorf("light_cutoff must be between 1 and 254, got %d", c.LightCutoff)
	}
	if c.EmptyThreshold <= 0 || c.EmptyThreshold > 1 {
		return fmt.Errorf("empty_threshold must be in (0, 1], got %g", c.EmptyThreshold)
	}
	return nil
}

// ParsedStrategy returns the validated squaring strategy.
func (c *Config) ParsedStrategy() grid.Strategy {
	s, err := grid.ParseStrategy(c.Strategy)
	if err != nil {
		return grid.DefaultStrategy
	}
	return s
}

// OCROptions maps the OCR section onto backend options.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{
		Backend:         c.OCR.Backend,
		Language:        c.OCR.Language,
		OllamaURL:       c.OCR.OllamaURL,
		OllamaModel:     c.OCR.OllamaModel,
		GeminiAPIKey:    c.OCR.GeminiAPIKey,
		GeminiModel:     c.OCR.GeminiModel,
		ONNXModelPath:   c.OCR.ONNXModelPath,
		ONNXLibraryPath: c.OCR.ONNXLibraryPath,
		ONNXInputName:   c.OCR.ONNXInputName,
		ONNXOutputName:  c.OCR.ONNXOutputName,
		Timeout:         c.OCR.Timeout,
	}
}

// PipelineOptions maps the processing settings onto extractor options. The
// caller adds an Observer and, if needed, a Loader.
func (c *Config) PipelineOptions() pipeline.Options {
	loc, err := detection.NewLocator(c.Locator)
	if err != nil {
		loc = detection.ContourLocator{}
	}
	return pipeline.Options{
		Strategy:       c.ParsedStrategy(),
		Locator:        loc,
		Workers:        c.Workers,
		CellTimeout:    c.CellTimeout,
		LightCutoff:    uint8(c.LightCutoff),
		EmptyThreshold: c.EmptyThreshold,
		Debug:          c.Debug,
		DebugDir:       c.DebugDir,
	}
}
