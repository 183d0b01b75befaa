package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"domestique/internal/models"
)

var (
	ErrNotFound   = errors.New("service not found")
	ErrValidation = errors.New("invalid service input")
)

const (
	cacheGenKey = "catalog:services:gen"
	cacheTTL    = 5 * time.Minute
)

// Catalog owns the service records and their localized text. The Redis
// client is optional; nil disables the listing cache.
type Catalog struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func New(db *gorm.DB, rdb *redis.Client) *Catalog {
	return &Catalog{DB: db, RDB: rdb}
}

type ServiceInput struct {
	Category    string            `json:"category"`
	Name        map[string]string `json:"name"`
	Description map[string]string `json:"description"`
	Notes       map[string]string `json:"notes"`
}

// ServiceView is a service projected into one language.
type ServiceView struct {
	ID          uint   `json:"id"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range m {
		out[k] = v
	}
	return out
}

func project(s *models.Service, lang string) ServiceView {
	return ServiceView{
		ID:          s.ID,
		Category:    s.Category,
		Name:        models.Localized(s.Name, lang),
		Description: models.Localized(s.Description, lang),
		Notes:       models.Localized(s.Notes, lang),
	}
}

func (c *Catalog) Create(ctx context.Context, in ServiceInput) (*models.Service, error) {
	if strings.TrimSpace(in.Category) == "" || in.Name[models.DefaultLang] == "" {
		return nil, fmt.Errorf("%w: category and %s name are required", ErrValidation, models.DefaultLang)
	}
	svc := models.Service{
		Category:    strings.TrimSpace(in.Category),
		Name:        toJSONMap(in.Name),
		Description: toJSONMap(in.Description),
		Notes:       toJSONMap(in.Notes),
	}
	if err := c.DB.Create(&svc).Error; err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &svc, nil
}

// Update rewrites the editable fields; the identity (ID) is immutable.
func (c *Catalog) Update(ctx context.Context, id uint, in ServiceInput) (*models.Service, error) {
	var svc models.Service
	if err := c.DB.First(&svc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	svc.Category = strings.TrimSpace(in.Category)
	svc.Name = toJSONMap(in.Name)
	svc.Description = toJSONMap(in.Description)
	svc.Notes = toJSONMap(in.Notes)
	if err := c.DB.Save(&svc).Error; err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &svc, nil
}

func (c *Catalog) SoftDelete(ctx context.Context, id uint) error {
	res := c.DB.Delete(&models.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	c.invalidate(ctx)
	return nil
}

func (c *Catalog) Get(ctx context.Context, id uint, lang string) (*ServiceView, error) {
	var svc models.Service
	if err := c.DB.First(&svc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	view := project(&svc, lang)
	return &view, nil
}

// List returns all live services in one language, through the Redis
// cache when available.
func (c *Catalog) List(ctx context.Context, lang string) ([]ServiceView, error) {
	if lang == "" {
		lang = models.DefaultLang
	}

	if c.RDB != nil {
		key := c.cacheKey(ctx, lang)
		if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
			var views []ServiceView
			if err := json.Unmarshal(b, &views); err == nil {
				return views, nil
			}
		}
		views, err := c.listFromDB(lang)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(views); err == nil {
			_ = c.RDB.Set(ctx, key, b, cacheTTL).Err()
		}
		return views, nil
	}

	return c.listFromDB(lang)
}

func (c *Catalog) listFromDB(lang string) ([]ServiceView, error) {
	var services []models.Service
	if err := c.DB.Order("id").Find(&services).Error; err != nil {
		return nil, err
	}
	views := make([]ServiceView, 0, len(services))
	for i := range services {
		views = append(views, project(&services[i], lang))
	}
	return views, nil
}

// Search filters by exact category and/or a case-insensitive substring
// of the localized name. Name matching happens after projection since
// the translations live in a JSON column.
func (c *Catalog) Search(ctx context.Context, category, name, lang string) ([]ServiceView, error) {
	if lang == "" {
		lang = models.DefaultLang
	}

	q := c.DB.Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		return nil, err
	}

	name = strings.ToLower(strings.TrimSpace(name))
	views := make([]ServiceView, 0, len(services))
	for i := range services {
		v := project(&services[i], lang)
		if name != "" && !strings.Contains(strings.ToLower(v.Name), name) {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Categories lists the distinct categories in use.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := c.DB.Model(&models.Service{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

// cacheKey folds a mutation generation into the key so invalidation is
// a single INCR regardless of how many languages are cached.
func (c *Catalog) cacheKey(ctx context.Context, lang string) string {
	gen, err := c.RDB.Get(ctx, cacheGenKey).Result()
	if err != nil {
		gen = "0"
	}
	return fmt.Sprintf("catalog:services:%s:%s", gen, lang)
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.RDB == nil {
		return
	}
	_ = c.RDB.Incr(ctx, cacheGenKey).Err()
}
