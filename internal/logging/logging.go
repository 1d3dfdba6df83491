package logging

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

// New builds the root logger. Unknown levels fall back to info.
func New(level string, pretty bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, pretty)
}

func newWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "hb-apparel").Logger()
}

// Middleware logs one line per request once the handler chain has finished.
// userID resolves the authenticated user, when there is one.
func Middleware(logger zerolog.Logger, userID func(*fiber.Ctx) (int, bool)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			// the error handler has not run yet
			status = response.StatusOf(chainErr)
		}

		evt := logger.Info()
		if status >= fiber.StatusInternalServerError {
			evt = logger.Error()
		}
		evt = evt.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start))
		if rid, ok := c.Locals("requestid").(string); ok {
			evt = evt.Str("request_id", rid)
		}
		if userID != nil {
			if id, ok := userID(c); ok {
				evt = evt.Int("user_id", id)
			}
		}
		evt.Msg("request completed")
		return chainErr
	}
}
