package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/sudoku-extractor/internal/config"
	"github.com/ironsheep/sudoku-extractor/internal/httpapi"
	"github.com/ironsheep/sudoku-extractor/internal/logging"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "Config file")
	addr := flag.String("addr", "", "Listen address (overrides http_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, false)
	log.Logger = logger
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec, err := ocr.New(ctx, cfg.OCROptions())
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.OCR.Backend).Msg("create recognizer")
	}
	defer rec.Close()

	opts := cfg.PipelineOptions()
	// uploads have no directory to write debug images next to
	opts.Debug = false
	opts.Observer = logging.Observer(logger)
	handler := httpapi.NewExtractHandler(pipeline.New(rec, opts), logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("backend", rec.Name()).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("run server")
	}
}
