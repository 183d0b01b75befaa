package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"domestique/internal/identity"
	"domestique/internal/middleware"
	"domestique/internal/models"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	authH := &AuthHandler{
		DB:        db,
		Identity:  identity.New(db),
		JWTSecret: testSecret,
		Expires:   60,
	}

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)

	protected := api.Group("/",
		middleware.JWTFromCookie(testSecret),
		middleware.AttachJWTLocals(),
	)
	protected.Get("/me", authH.Me)
	protected.Get("/admin/ping",
		middleware.RequireRoles(models.RoleAdmin),
		func(c *fiber.Ctx) error { return ok(c, "pong") },
	)

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, cookie string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName && c.Value != "" {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("session cookie not set")
	return ""
}

func TestRegisterLoginMe(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", RegisterReq{
		FirstName: "Cleo",
		LastName:  "Martin",
		Email:     "cleo@example.com",
		Password:  "secret1",
		Role:      "client",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Cookie", cookie)
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Email string      `json:"email"`
			Role  models.Role `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&out))
	require.True(t, out.Success)
	require.Equal(t, "cleo@example.com", out.Data.Email)
	require.Equal(t, models.RoleClient, out.Data.Role)

	loginResp := postJSON(t, app, "/api/auth/login", LoginReq{
		Email:    "cleo@example.com",
		Password: "secret1",
	}, "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	sessionCookie(t, loginResp)
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", RegisterReq{
		FirstName: "Eve",
		Email:     "eve@example.com",
		Password:  "secret1",
		Role:      "admin",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/login", LoginReq{
		Email:    "ghost@example.com",
		Password: "whatever",
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresCookie(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGate(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", RegisterReq{
		FirstName: "Cleo",
		Email:     "cleo@example.com",
		Password:  "secret1",
		Role:      "client",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Cookie", cookie)
	adminResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, adminResp.StatusCode)
}
