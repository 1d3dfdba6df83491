package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Message: message})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data, Message: message})
}

// Fail writes err as an error envelope. Internal errors get a generic message.
func Fail(c *fiber.Ctx, err error) error {
	return FailWithData(c, err, nil)
}

// FailWithData is Fail with a data payload, used when a partially completed
// operation still has something the client needs (e.g. an order whose payment failed).
func FailWithData(c *fiber.Ctx, err error, data any) error {
	status, env := render(err)
	env.Data = data
	return c.Status(status).JSON(env)
}

func render(err error) (int, Envelope) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			return fiber.StatusInternalServerError, Envelope{Message: "Internal server error"}
		}
		return ae.Kind.HTTPStatus(), Envelope{Message: ae.Message, Errors: ae.Fields}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, Envelope{Message: fe.Message}
	}
	return fiber.StatusInternalServerError, Envelope{Message: "Internal server error"}
}

// StatusOf is the HTTP status err will be rendered with.
func StatusOf(err error) int {
	status, _ := render(err)
	return status
}

// ErrorHandler is installed as fiber's ErrorHandler so handlers can simply return errors.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, env := render(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("unhandled error")
		}
		return c.Status(status).JSON(env)
	}
}
