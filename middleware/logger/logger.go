// Package logger traces agent runs through slog.
package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/krishimitra/middleware"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
)

// RunLogger logs the instruction entering an agent run and the output or
// error leaving it.
type RunLogger struct {
	logger *slog.Logger
}

// NewRunLogger creates a run logging middleware. A nil logger falls back to
// the process logger.
func NewRunLogger(logger *slog.Logger) *RunLogger {
	if logger == nil {
		logger = logging.WithComponent("agent")
	}
	return &RunLogger{logger: logger}
}

// Name returns the middleware name
func (m *RunLogger) Name() string {
	return "RunLogger"
}

// Execute logs around the rest of the chain
func (m *RunLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	c := ctx.Context()
	started := time.Now()
	m.logger.DebugContext(c, "agent run started", "input_chars", len(ctx.Input))

	err := next(ctx)

	elapsed := time.Since(started)
	switch {
	case err != nil:
		m.logger.ErrorContext(c, "agent run failed", "error", err, "elapsed", elapsed)
	case ctx.Response != nil:
		m.logger.InfoContext(c, "agent run finished",
			"output_chars", len(ctx.Response.Content),
			"elapsed", elapsed,
		)
		m.logger.DebugContext(c, "agent output", "output", ctx.Response.Content)
	default:
		m.logger.InfoContext(c, "agent run finished without response", "elapsed", elapsed)
	}
	return err
}
