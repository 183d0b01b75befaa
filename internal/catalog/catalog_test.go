package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"domestique/internal/models"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return New(db, nil)
}

func TestCreate_RequiresCategoryAndDefaultName(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	_, err := cat.Create(ctx, ServiceInput{Category: "", Name: map[string]string{"en": "Plumbing"}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"fr": "Plomberie"}})
	require.ErrorIs(t, err, ErrValidation)

	svc, err := cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"en": "Plumbing"}})
	require.NoError(t, err)
	require.NotZero(t, svc.ID)
}

func TestGet_LocalizedWithFallback(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	svc, err := cat.Create(ctx, ServiceInput{
		Category:    "home",
		Name:        map[string]string{"en": "Plumbing", "fr": "Plomberie"},
		Description: map[string]string{"en": "Pipes and drains"},
	})
	require.NoError(t, err)

	fr, err := cat.Get(ctx, svc.ID, "fr")
	require.NoError(t, err)
	require.Equal(t, "Plomberie", fr.Name)
	// No French description; falls back to English.
	require.Equal(t, "Pipes and drains", fr.Description)

	de, err := cat.Get(ctx, svc.ID, "de")
	require.NoError(t, err)
	require.Equal(t, "Plumbing", de.Name)

	_, err = cat.Get(ctx, 9999, "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_EditableFieldsOnly(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	svc, err := cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"en": "Plumbing"}})
	require.NoError(t, err)

	updated, err := cat.Update(ctx, svc.ID, ServiceInput{
		Category: "repairs",
		Name:     map[string]string{"en": "Advanced plumbing"},
	})
	require.NoError(t, err)
	require.Equal(t, svc.ID, updated.ID)
	require.Equal(t, "repairs", updated.Category)

	view, err := cat.Get(ctx, svc.ID, "en")
	require.NoError(t, err)
	require.Equal(t, "Advanced plumbing", view.Name)

	_, err = cat.Update(ctx, 9999, ServiceInput{Category: "x", Name: map[string]string{"en": "x"}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListAndSearch(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	_, err := cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"en": "Plumbing"}})
	require.NoError(t, err)
	_, err = cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"en": "Painting"}})
	require.NoError(t, err)
	_, err = cat.Create(ctx, ServiceInput{Category: "garden", Name: map[string]string{"en": "Mowing"}})
	require.NoError(t, err)

	all, err := cat.List(ctx, "en")
	require.NoError(t, err)
	require.Len(t, all, 3)

	home, err := cat.Search(ctx, "home", "", "en")
	require.NoError(t, err)
	require.Len(t, home, 2)

	paint, err := cat.Search(ctx, "", "paint", "en")
	require.NoError(t, err)
	require.Len(t, paint, 1)
	require.Equal(t, "Painting", paint[0].Name)

	both, err := cat.Search(ctx, "home", "plumb", "en")
	require.NoError(t, err)
	require.Len(t, both, 1)

	categories, err := cat.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"garden", "home"}, categories)
}

func TestSoftDelete_HidesService(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	svc, err := cat.Create(ctx, ServiceInput{Category: "home", Name: map[string]string{"en": "Plumbing"}})
	require.NoError(t, err)

	require.NoError(t, cat.SoftDelete(ctx, svc.ID))

	_, err = cat.Get(ctx, svc.ID, "en")
	require.ErrorIs(t, err, ErrNotFound)

	all, err := cat.List(ctx, "en")
	require.NoError(t, err)
	require.Empty(t, all)

	require.ErrorIs(t, cat.SoftDelete(ctx, svc.ID), ErrNotFound)
}
