package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart", h.addToCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Put("/api/v1/cart/:itemId", h.updateItem)
	app.Delete("/api/v1/cart/:itemId", h.removeItem)
}

type addRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	v, err := h.service.View(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Cart fetched", v)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	payload := addRequest{Quantity: 1}
	if err := c.BodyParser(&payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	v, err := h.service.Add(c.UserContext(), userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Item added to cart", v)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	itemID, err := strconv.Atoi(c.Params("itemId"))
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid cart item id"))
	}
	var payload updateRequest
	if err := c.BodyParser(&payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	v, err := h.service.UpdateQuantity(c.UserContext(), userID, itemID, payload.Quantity)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Cart updated", v)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	itemID, err := strconv.Atoi(c.Params("itemId"))
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid cart item id"))
	}
	v, err := h.service.Remove(c.UserContext(), userID, itemID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Item removed", v)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Cart cleared", nil)
}
