package order

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Handler exposes the customer side of the order lifecycle. Placing and
// paying orders lives in the checkout package.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:orderNumber", h.getOrder)
	app.Put("/api/v1/orders/:orderNumber", h.updateOrder)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	orders, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Orders fetched", orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	o, err := h.service.Get(c.UserContext(), userID, c.Params("orderNumber"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Order fetched", o)
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	o, err := h.service.Update(c.UserContext(), userID, c.Params("orderNumber"), in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Order updated", o)
}
