package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"domestique/internal/identity"
	"domestique/internal/middleware"
	"domestique/internal/models"
	"domestique/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	Identity  *identity.Service
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Password  string `json:"password"`
	Role      string `json:"role"` // client / provider; admins are never created here
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))

	errs := FieldErrors{}
	if strings.TrimSpace(req.FirstName) == "" {
		errs.Add("first_name", "First name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if role != models.RoleClient && role != models.RoleProvider {
		errs.Add("role", "Role must be client or provider")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Identity.Register(identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Phone:     req.Phone,
		Address:   req.Address,
		Password:  password,
		Role:      role,
	})
	if err != nil {
		return failFrom(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create token")
	}
	h.setSessionCookie(c, token)

	return created(c, fiber.Map{"user": userPayload(u)})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	u, err := h.Identity.Authenticate(req.Email, strings.TrimSpace(req.Password))
	if err != nil {
		return failFrom(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create token")
	}
	h.setSessionCookie(c, token)

	return ok(c, fiber.Map{"user": userPayload(u)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ok(c, nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}
	return ok(c, userPayload(u))
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func userPayload(u *models.User) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
	}
}
