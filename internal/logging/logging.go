// Package logging builds zerolog loggers and turns pipeline events into log
// lines.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/sudoku-extractor/internal/pipeline"
	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// ParseLevel maps a level name onto a zerolog level. Unknown or empty names
// fall back to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a logger writing to w. Console output is human readable;
// otherwise one JSON object is written per line.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Observer logs pipeline events. Stage progress and successful cells go to
// debug, cells that needed the recognizer but stayed empty and warnings go
// to warn, failures to error and completed images to info.
func Observer(logger zerolog.Logger) pipeline.Observer {
	return func(ev pipeline.Event) {
		switch ev.Kind {
		case pipeline.EventStage:
			e := logger.Debug().Str("source", ev.Source).Str("stage", string(ev.Stage))
			if ev.Detail != "" {
				e = e.Str("detail", ev.Detail)
			}
			if ev.Total > 0 {
				e = e.Int("total", ev.Total)
			}
			e.Msg("stage complete")
		case pipeline.EventCell:
			if ev.Cell == nil {
				return
			}
			c := ev.Cell
			e := logger.Debug()
			if c.Status == sudoku.StatusFailed || c.Status == sudoku.StatusUnrecognized {
				e = logger.Warn()
			}
			e.Str("source", ev.Source).
				Int("row", c.Row+1).
				Int("col", c.Col+1).
				Str("status", string(c.Status)).
				Str("value", c.Value).
				AnErr("cause", c.Err).
				Msg("cell")
		case pipeline.EventWarning:
			logger.Warn().Str("source", ev.Source).Str("stage", string(ev.Stage)).Err(ev.Err).Msg(ev.Detail)
		case pipeline.EventFailed:
			logger.Error().Str("source", ev.Source).Str("stage", string(ev.Stage)).Err(ev.Err).Msg("processing failed")
		case pipeline.EventDone:
			logger.Info().Str("source", ev.Source).Str("detail", ev.Detail).Msg("processing complete")
		}
	}
}
