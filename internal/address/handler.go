package address

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Handler delegates address operations to the address service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/address", h.getAddresses)
	app.Post("/api/v1/address", h.addAddress)
	app.Patch("/api/v1/address", h.updateAddress)
	app.Delete("/api/v1/address", h.deleteAddress)
}

type addressUpdateRequest struct {
	AddressID int `json:"addressId"`
	Input
}

type addressDeleteRequest struct {
	AddressID int `json:"addressId"`
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	addrs, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Addresses fetched", addrs)
}

func (h *Handler) addAddress(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	addr, err := h.service.Create(c.UserContext(), userID, *payload)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Created(c, "Address added", addr)
}

func (h *Handler) updateAddress(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	payload := new(addressUpdateRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	if payload.AddressID <= 0 {
		return response.Fail(c, apperr.Validation("Invalid address", apperr.Field("addressId", "addressId is required")))
	}
	addr, err := h.service.Update(c.UserContext(), userID, payload.AddressID, payload.Input)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Address updated", addr)
}

func (h *Handler) deleteAddress(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}
	payload := new(addressDeleteRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	if payload.AddressID <= 0 {
		return response.Fail(c, apperr.Validation("Invalid address", apperr.Field("addressId", "addressId is required")))
	}
	if err := h.service.Delete(c.UserContext(), userID, payload.AddressID); err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Address deleted", nil)
}
