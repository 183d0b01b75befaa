package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"domestique/internal/engine"
)

type ResponseHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewResponseHandler(db *gorm.DB, eng *engine.Engine) *ResponseHandler {
	return &ResponseHandler{DB: db, Engine: eng}
}

type SubmitResponseReq struct {
	Message       string  `json:"message"`
	ProposedPrice float64 `json:"proposed_price"`
}

func (h *ResponseHandler) Submit(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	requestID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}

	var req SubmitResponseReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	resp, err := h.Engine.SubmitResponse(actor, requestID, req.Message, req.ProposedPrice)
	if err != nil {
		return failFrom(c, err)
	}
	return created(c, resp)
}

func (h *ResponseHandler) Reject(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	responseID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid response id")
	}

	if err := h.Engine.RejectResponse(actor, responseID); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}

func (h *ResponseHandler) ProviderDashboard(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	dash, err := h.Engine.ProviderDashboardFor(actor)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, dash)
}
