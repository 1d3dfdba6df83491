package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

const (
	// Header is the request header clients set to make a POST safe to retry.
	Header = "Idempotency-Key"
	// ReplayedHeader marks a response served from the store.
	ReplayedHeader = "Idempotent-Replayed"

	maxKeyLength = 255
)

var errInFlight = apperr.Conflict("A request with this Idempotency-Key is already in progress")

// Middleware replays the first completed response for a repeated
// Idempotency-Key. Keys are scoped per user. Requests without the header
// pass through, and so does everything when the store is unreachable.
// Responses with a 5xx status are not kept so the client may retry.
func Middleware(store Store, ttl time.Duration, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(Header)
		if raw == "" {
			return c.Next()
		}
		if len(raw) > maxKeyLength {
			return response.Fail(c, apperr.Validation("Invalid Idempotency-Key",
				apperr.Field(Header, fmt.Sprintf("must be at most %d characters", maxKeyLength))))
		}
		userID, err := user.GetUserIDFromCtx(c)
		if err != nil {
			return response.Fail(c, err)
		}
		key := fmt.Sprintf("%d:%s:%s", userID, c.Path(), raw)
		ctx := c.UserContext()

		rec, err := store.Begin(ctx, key, ttl)
		switch {
		case errors.Is(err, ErrInFlight):
			return response.Fail(c, errInFlight)
		case err != nil:
			logger.Warn().Err(err).Msg("idempotency store unavailable")
			return c.Next()
		case rec != nil:
			c.Set(ReplayedHeader, "true")
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			return c.Status(rec.Status).Send(rec.Body)
		}

		if err := c.Next(); err != nil {
			release(ctx, store, key, logger)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release(ctx, store, key, logger)
			return nil
		}
		saved := Record{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(ctx, key, saved, ttl); err != nil {
			logger.Warn().Err(err).Msg("save idempotent response")
		}
		return nil
	}
}

func release(ctx context.Context, store Store, key string, logger zerolog.Logger) {
	if err := store.Release(ctx, key); err != nil {
		logger.Warn().Err(err).Msg("release idempotency key")
	}
}
