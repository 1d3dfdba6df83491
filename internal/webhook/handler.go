package webhook

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

// SignatureHeader carries the processor's delivery signature.
const SignatureHeader = "Stripe-Signature"

type Handler struct {
	processor *Processor
}

func NewHandler(p *Processor) *Handler {
	return &Handler{processor: p}
}

// RegisterPublicRoutes mounts the webhook outside JWT auth; deliveries are
// authenticated by their signature.
func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/api/v1/webhooks/payment", h.receive)
}

func (h *Handler) receive(c *fiber.Ctx) error {
	// fiber reuses the body buffer after the handler returns
	payload := append([]byte(nil), c.Body()...)
	outcome, err := h.processor.Handle(c.UserContext(), payload, c.Get(SignatureHeader))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Webhook received", fiber.Map{"received": true, "outcome": outcome})
}
