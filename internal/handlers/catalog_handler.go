package handlers

import (
	"github.com/gofiber/fiber/v2"

	"domestique/internal/catalog"
	"domestique/internal/models"
)

type CatalogHandler struct {
	Catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: cat}
}

func lang(c *fiber.Ctx) string {
	l := c.Query("lang")
	if l == "" {
		return models.DefaultLang
	}
	return l
}

// List doubles as search when ?category= or ?name= is given.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	category := c.Query("category")
	name := c.Query("name")

	if category == "" && name == "" {
		views, err := h.Catalog.List(c.Context(), lang(c))
		if err != nil {
			return failFrom(c, err)
		}
		return ok(c, views)
	}

	views, err := h.Catalog.Search(c.Context(), category, name, lang(c))
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, views)
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "invalid service id")
	}
	view, err := h.Catalog.Get(c.Context(), uint(id), lang(c))
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, view)
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.Catalog.Categories(c.Context())
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, categories)
}

// Admin mutations.

func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	var in catalog.ServiceInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	svc, err := h.Catalog.Create(c.Context(), in)
	if err != nil {
		return failFrom(c, err)
	}
	return created(c, svc)
}

func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "invalid service id")
	}
	var in catalog.ServiceInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	svc, err := h.Catalog.Update(c.Context(), uint(id), in)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, svc)
}

func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "invalid service id")
	}
	if err := h.Catalog.SoftDelete(c.Context(), uint(id)); err != nil {
		return failFrom(c, err)
	}
	return ok(c, nil)
}
