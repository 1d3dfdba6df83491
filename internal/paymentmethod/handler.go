package paymentmethod

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/payment-methods", h.list)
	app.Post("/api/v1/payment-methods", h.save)
	app.Delete("/api/v1/payment-methods/:id<int>", h.remove)
}

func (h *Handler) list(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	methods, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Payment methods fetched", methods)
}

func (h *Handler) save(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var in SaveInput
	if err := c.BodyParser(&in); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	m, err := h.service.Save(c.UserContext(), userID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Created(c, "Payment method saved", m)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	id, _ := c.ParamsInt("id")
	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Payment method deleted", nil)
}
