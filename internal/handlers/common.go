package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"domestique/internal/catalog"
	"domestique/internal/engine"
	"domestique/internal/identity"
	"domestique/internal/models"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// failFrom maps service errors to HTTP statuses.
func failFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, identity.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, engine.ErrDuplicateResponse),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, identity.ErrValidation),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrInvalidRole):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrUnauthorized),
		errors.Is(err, engine.ErrNotApproved):
		return fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrInvalidState),
		errors.Is(err, engine.ErrAlreadyAccepted):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

// currentUser resolves the acting user from the JWT locals.
func currentUser(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	uid, _ := c.Locals("userId").(string)
	if uid == "" {
		return nil, fiber.ErrUnauthorized
	}
	var u models.User
	if err := db.First(&u, "id = ?", uid).Error; err != nil {
		return nil, fiber.ErrUnauthorized
	}
	if !u.IsActive {
		return nil, fiber.ErrUnauthorized
	}
	return &u, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func queryPage(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
