package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:id<int>", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Post("/api/v1/products", h.createProduct)
	app.Put("/api/v1/products/:id<int>", h.updateProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Products fetched", products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid product id"))
	}
	d, err := h.service.Detail(c.UserContext(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Product fetched", d)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	in := new(Input)
	if err := c.BodyParser(in); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	created, err := h.service.Create(c.UserContext(), *in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Created(c, "Product created", created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid product id"))
	}
	in := new(Input)
	if err := c.BodyParser(in); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	updated, err := h.service.Update(c.UserContext(), id, *in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Product updated", updated)
}
