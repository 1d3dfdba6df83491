package checkout

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

type Handler struct {
	service *Service
	// guard runs before order placement, typically the idempotency middleware.
	guard fiber.Handler
}

// NewHandler builds the checkout routes. placeOrderGuard may be nil.
func NewHandler(s *Service, placeOrderGuard fiber.Handler) *Handler {
	return &Handler{service: s, guard: placeOrderGuard}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/checkout/summary", h.getSummary)
	app.Post("/api/v1/checkout/create-payment-intent", h.createPaymentIntent)
	app.Post("/api/v1/checkout/create-payment-intent-unsaved", h.createUnsavedPaymentIntent)
	if h.guard != nil {
		app.Post("/api/v1/orders", h.guard, h.placeOrder)
	} else {
		app.Post("/api/v1/orders", h.placeOrder)
	}
	app.Post("/api/v1/orders/:orderNumber/payment", h.payOrder)
}

func (h *Handler) getSummary(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	s, err := h.service.Summary(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Checkout summary fetched", s)
}

func (h *Handler) createPaymentIntent(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req IntentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, apperr.Validation("Invalid request body"))
		}
	}
	res, err := h.service.CreatePaymentIntent(c.UserContext(), userID, req)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Payment intent created", res)
}

func (h *Handler) createUnsavedPaymentIntent(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req UnsavedIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	res, err := h.service.CreateUnsavedPaymentIntent(c.UserContext(), userID, req)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Payment intent created", res)
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	res, err := h.service.PlaceOrder(c.UserContext(), userID, req)
	if err != nil {
		if res.Order.OrderNumber != "" {
			// the order exists; the client can retry payment against it
			return response.FailWithData(c, err, res)
		}
		return response.Fail(c, err)
	}
	return response.Created(c, "Order placed", res)
}

func (h *Handler) payOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req PayOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	res, err := h.service.PayOrder(c.UserContext(), userID, c.Params("orderNumber"), req)
	if err != nil {
		if res.Order.OrderNumber != "" {
			return response.FailWithData(c, err, res)
		}
		return response.Fail(c, err)
	}
	return response.OK(c, "Payment submitted", res)
}
