package wishlist

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Handler exposes wishlist operations for the authenticated user.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/wishlist", h.list)
	app.Post("/api/v1/wishlist", h.add)
	app.Delete("/api/v1/wishlist/:productId<int>", h.remove)
	app.Post("/api/v1/wishlist/add-to-cart/:productId<int>", h.moveOne)
	app.Post("/api/v1/wishlist/move-to-cart", h.moveAll)
}

type addRequest struct {
	ProductID int `json:"productId"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	entries, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Wishlist fetched", entries)
}

func (h *Handler) add(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var payload addRequest
	if err := c.BodyParser(&payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	entries, err := h.service.Add(c.UserContext(), userID, payload.ProductID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Created(c, "Added to wishlist", entries)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	productID, _ := c.ParamsInt("productId")
	entries, err := h.service.Remove(c.UserContext(), userID, productID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Removed from wishlist", entries)
}

func (h *Handler) moveOne(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	productID, _ := c.ParamsInt("productId")
	v, err := h.service.MoveToCart(c.UserContext(), userID, productID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Moved to cart", v)
}

func (h *Handler) moveAll(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	res, err := h.service.MoveAllToCart(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Wishlist moved to cart", res)
}
