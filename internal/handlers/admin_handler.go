package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"domestique/internal/identity"
	"domestique/internal/models"
)

// AdminHandler serves the staff-only user management endpoints. All of
// its routes sit behind RequireRoles(ADMIN).
type AdminHandler struct {
	DB       *gorm.DB
	Identity *identity.Service
}

func NewAdminHandler(db *gorm.DB, ident *identity.Service) *AdminHandler {
	return &AdminHandler{DB: db, Identity: ident}
}

func (h *AdminHandler) listRole(c *fiber.Ctx, role models.Role) error {
	offset, limit := queryPage(c)
	users, total, err := h.Identity.ListByRole(role, offset, limit)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, fiber.Map{"users": users, "total": total})
}

func (h *AdminHandler) ListClients(c *fiber.Ctx) error {
	return h.listRole(c, models.RoleClient)
}

func (h *AdminHandler) ListProviders(c *fiber.Ctx) error {
	return h.listRole(c, models.RoleProvider)
}

func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	return h.listRole(c, models.RoleAdmin)
}

// CreateUser lets an admin create an account with any role, including
// other admins.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	u, err := h.Identity.Register(identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Password:  strings.TrimSpace(req.Password),
		Role:      role,
	})
	if err != nil {
		return failFrom(c, err)
	}
	return created(c, userPayload(u))
}

type ApprovalReq struct {
	Approved bool `json:"approved"`
}

func (h *AdminHandler) SetApproval(c *fiber.Ctx) error {
	providerID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid provider id")
	}
	var req ApprovalReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.Identity.SetApproval(providerID, req.Approved); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}

type RoleReq struct {
	Role string `json:"role"`
}

func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}
	var req RoleReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	u, err := h.Identity.SetRole(userID, models.Role(strings.ToUpper(strings.TrimSpace(req.Role))))
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, userPayload(u))
}

type SkillsReq struct {
	ServiceIDs []uint `json:"service_ids"`
}

func (h *AdminHandler) SetSkills(c *fiber.Ctx) error {
	providerID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid provider id")
	}
	var req SkillsReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.Identity.SetSkills(providerID, req.ServiceIDs); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}
	if err := h.Identity.SoftDelete(userID); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}
