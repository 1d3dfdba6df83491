package recommended

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

const maxLimit = 48

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/api/v1/products/recommended", h.getRecommended)
}

func (h *Handler) getRecommended(c *fiber.Ctx) error {
	// support pagination: ?limit=12&offset=0
	limit := 12
	offset := 0
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = min(v, maxLimit)
		}
	}
	if o := c.Query("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	items, err := h.service.List(c.UserContext(), limit, offset)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Recommended products fetched", items)
}
