package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"domestique/internal/engine"
	"domestique/internal/models"
)

type RequestHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewRequestHandler(db *gorm.DB, eng *engine.Engine) *RequestHandler {
	return &RequestHandler{DB: db, Engine: eng}
}

type CreateRequestReq struct {
	ServiceID   uint    `json:"service_id"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	TaskDate    string  `json:"task_date"` // RFC 3339, optional
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}

	var req CreateRequestReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	var taskDate *time.Time
	if req.TaskDate != "" {
		t, err := time.Parse(time.RFC3339, req.TaskDate)
		if err != nil {
			errs := FieldErrors{}
			errs.Add("task_date", "Must be an RFC 3339 timestamp")
			return validationFail(c, errs)
		}
		taskDate = &t
	}

	out, err := h.Engine.CreateRequest(actor, engine.CreateRequestInput{
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		TaskDate:    taskDate,
	})
	if err != nil {
		return failFrom(c, err)
	}
	return created(c, out)
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}

	req, err := h.Engine.GetRequest(actor, id)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, req)
}

// ListOpen is the provider-facing browse view of PENDING requests.
func (h *RequestHandler) ListOpen(c *fiber.Ctx) error {
	offset, limit := queryPage(c)
	reqs, total, err := h.Engine.ListOpenRequests(offset, limit)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, fiber.Map{"requests": reqs, "total": total})
}

func (h *RequestHandler) ClientDashboard(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	dash, err := h.Engine.ClientDashboardFor(actor)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, dash)
}

type AcceptReq struct {
	ResponseID string `json:"response_id"`
	ProviderID string `json:"provider_id"`
}

func (h *RequestHandler) Accept(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	requestID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body AcceptReq
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	responseID, err := uuid.Parse(body.ResponseID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid response id")
	}
	providerID, err := uuid.Parse(body.ProviderID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid provider id")
	}

	if err := h.Engine.AcceptResponse(actor, requestID, responseID, providerID); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}

func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	return h.mutate(c, h.Engine.CancelRequest)
}

func (h *RequestHandler) Complete(c *fiber.Ctx) error {
	return h.mutate(c, h.Engine.CompleteRequest)
}

func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	return h.mutate(c, h.Engine.SoftDeleteRequest)
}

func (h *RequestHandler) mutate(c *fiber.Ctx, op func(*models.User, uuid.UUID) error) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}
	if err := op(actor, id); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}

// ListAll is the admin view.
func (h *RequestHandler) ListAll(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	offset, limit := queryPage(c)
	reqs, total, err := h.Engine.ListAllRequests(actor, offset, limit)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, fiber.Map{"requests": reqs, "total": total})
}
