// Package httpapi serves the extractor over HTTP with gin.
//
//	POST /api/v1/extract   multipart "file", optional "strategy" and "format" fields
//	GET  /healthz
//
// With format=xlsx or format=csv the response is the spreadsheet instead of
// JSON.
package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/imaging"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
	"github.com/ironsheep/sudoku-extractor/internal/report"
	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// MaxUploadBytes caps the multipart form kept in memory.
const MaxUploadBytes = 16 << 20

// ExtractResponse is the JSON body of a successful extraction.
type ExtractResponse struct {
	Source     string              `json:"source"`
	Rows       [][]string          `json:"rows"`
	Preview    string              `json:"preview"`
	Filled     int                 `json:"filled"`
	Decision   grid.Decision       `json:"decision"`
	Conflicts  []sudoku.Conflict   `json:"conflicts,omitempty"`
	Cells      []sudoku.CellResult `json:"cells"`
	DurationMS int64               `json:"duration_ms"`
}

type ExtractHandler struct {
	extractor *pipeline.Extractor
	logger    zerolog.Logger
}

func NewExtractHandler(extractor *pipeline.Extractor, logger zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, logger: logger}
}

// NewRouter wires the routes onto a gin engine with recovery and request
// logging.
func NewRouter(h *ExtractHandler, logger zerolog.Logger) *gin.Engine {
	e := gin.New()
	e.MaxMultipartMemory = MaxUploadBytes
	e.Use(gin.Recovery(), requestLogger(logger))

	e.GET("/healthz", Health)
	v1 := e.Group("/api").
		Group("/v1")
	v1.POST("/extract", h.Extract)
	return e
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ExtractHandler) Extract(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.logger.Err(err).Msg("read file from form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read form file", "message": err.Error()})
		return
	}

	strategy := h.extractor.Strategy()
	if s := c.PostForm("strategy"); s != "" {
		parsed, err := grid.ParseStrategy(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid strategy", "message": err.Error()})
			return
		}
		strategy = parsed
	}

	format := strings.ToLower(c.DefaultPostForm("format", "json"))
	if format != "json" && format != "xlsx" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format", "message": "format must be json, xlsx or csv"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.logger.Err(err).Msg("open file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open form file", "message": err.Error()})
		return
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		h.logger.Warn().Err(err).Str("file", file.Filename).Msg("decode upload")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pipeline.ErrUnreadableImage.Error(), "message": err.Error()})
		return
	}

	res, err := h.extractor.WithStrategy(strategy).ProcessImage(c.Request.Context(), file.Filename, img)
	if err != nil {
		status := http.StatusInternalServerError
		if c.Request.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		h.logger.Err(err).Str("file", file.Filename).Msg("extract grid")
		c.JSON(status, gin.H{"error": "Failed to extract grid", "message": err.Error()})
		return
	}

	h.logger.Info().
		Str("file", file.Filename).
		Int("filled", res.Grid.Filled()).
		Str("path", string(res.Decision.Path)).
		Dur("took", res.Duration).
		Msg("extracted")

	if format != "json" {
		h.sendSheet(c, res, format)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		Source:     res.Source,
		Rows:       res.Grid.Rows(),
		Preview:    res.Grid.Preview(),
		Filled:     res.Grid.Filled(),
		Decision:   res.Decision,
		Conflicts:  res.Grid.Conflicts(),
		Cells:      res.Cells,
		DurationMS: res.Duration.Milliseconds(),
	})
}

// sendSheet writes the result with the report writer for format into a
// temporary file and streams it back as an attachment.
func (h *ExtractHandler) sendSheet(c *gin.Context, res *pipeline.Result, format string) {
	tmp, err := os.MkdirTemp("", "sudoku_*")
	if err != nil {
		h.logger.Err(err).Msg("create temporary directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temporary file", "message": err.Error()})
		return
	}
	defer os.RemoveAll(tmp)

	name := strings.TrimSuffix(filepath.Base(report.DefaultOutputPath(res.Source)), ".xlsx") + "." + format
	path := filepath.Join(tmp, name)
	sheet := report.Sheet{Grid: res.Grid, Source: res.Source, ExtractedAt: res.ExtractedAt}
	if err := report.Write(path, sheet); err != nil {
		h.logger.Err(err).Msg("write sheet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write sheet", "message": err.Error()})
		return
	}
	c.FileAttachment(path, name)
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
