package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, grid.StrategyPad, cfg.ParsedStrategy())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 200, cfg.LightCutoff)
	assert.Equal(t, 0.93, cfg.EmptyThreshold)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ocr.BackendTesseract, cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "conf.yaml", `
log_level: debug
strategy: auto
workers: 4
cell_timeout: 2s
debug: true
ocr:
  backend: ollama
  ollama_model: llava
`)
	t.Setenv("SUDOKU_WORKERS", "8")
	t.Setenv("SUDOKU_OCR_OLLAMA_URL", "http://gpu:11434")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, grid.StrategyAuto, cfg.ParsedStrategy())
	assert.Equal(t, 8, cfg.Workers, "environment beats the file")
	assert.Equal(t, 2*time.Second, cfg.CellTimeout)
	assert.True(t, cfg.Debug)

	o := cfg.OCROptions()
	assert.Equal(t, "ollama", o.Backend)
	assert.Equal(t, "llava", o.OllamaModel)
	assert.Equal(t, "http://gpu:11434", o.OllamaURL)

	p := cfg.PipelineOptions()
	assert.Equal(t, grid.StrategyAuto, p.Strategy)
	assert.IsType(t, detection.ContourLocator{}, p.Locator)
	assert.Equal(t, 8, p.Workers)
	assert.Equal(t, 2*time.Second, p.CellTimeout)
	assert.Equal(t, uint8(200), p.LightCutoff)
	assert.True(t, p.Debug)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sudoku.toml"), []byte("strategy = \"perspective\"\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, grid.StrategyPerspective, cfg.ParsedStrategy())
	assert.NotEmpty(t, cfg.File)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad strategy", "strategy: warp\n", "unknown strategy"},
		{"bad locator", "locator: hough\n", "unknown locator"},
		{"zero workers", "workers: 0\n", "workers"},
		{"threshold too large", "empty_threshold: 1.5\n", "empty_threshold"},
		{"cutoff out of range", "light_cutoff: 300\n", "light_cutoff"},
		{"negative timeout", "cell_timeout: -1s\n", "cell_timeout"},
		{"malformed", "workers: [\n", "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.content))
			assert.ErrorContains(t, err, tt.errText)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
