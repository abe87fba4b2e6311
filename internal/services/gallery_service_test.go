package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/database/testutil"
	"github.com/atelierlabs/atelier/internal/models"
)

func seedPortfolio(t *testing.T, db *gorm.DB) *models.Portfolio {
	t.Helper()

	service, err := NewPortfolioService(db)
	require.NoError(t, err)
	user := seedArtist(t, db, "jane@example.com")
	portfolio, err := service.EnsureForUser(context.Background(), user)
	require.NoError(t, err)
	return portfolio
}

func TestGalleryCreateAssignsPositions(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	// The hidden commissions gallery already occupies position 0.
	first, err := service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Paintings"})
	require.NoError(t, err)
	second, err := service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Sketches"})
	require.NoError(t, err)

	require.Equal(t, 1, first.Position)
	require.Equal(t, 2, second.Position)
}

func TestGalleryCreateRejectsReservedName(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	_, err = service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Commissions"})
	require.ErrorIs(t, err, ErrGalleryReserved)

	_, err = service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "  "})
	require.Error(t, err)
}

func TestGalleryListHidesCommissionsGallery(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	_, err = service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Paintings"})
	require.NoError(t, err)

	visible, err := service.List(context.Background(), portfolio.ID, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "Paintings", visible[0].Name)

	all, err := service.List(context.Background(), portfolio.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGalleryScopedByPortfolio(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	gallery, err := service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Paintings"})
	require.NoError(t, err)

	_, err = service.Get(context.Background(), "someone-else", gallery.ID)
	require.ErrorIs(t, err, ErrGalleryNotFound)
}

func TestGalleryUpdateAndDeleteProtectCommissions(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	all, err := service.List(context.Background(), portfolio.ID, true)
	require.NoError(t, err)
	var commissions *models.Gallery
	for i := range all {
		if all[i].Hidden {
			commissions = &all[i]
		}
	}
	require.NotNil(t, commissions)

	name := "Renamed"
	_, err = service.Update(context.Background(), portfolio.ID, commissions.ID, UpdateGalleryInput{Name: &name})
	require.ErrorIs(t, err, ErrGalleryReserved)

	err = service.Delete(context.Background(), portfolio.ID, commissions.ID)
	require.ErrorIs(t, err, ErrGalleryReserved)
}

func TestGalleryItemLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	gallery, err := service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Paintings"})
	require.NoError(t, err)

	item, err := service.AddItem(context.Background(), portfolio.ID, gallery.ID, CreateItemInput{
		Title:    "Sunrise",
		ImageURL: "https://cdn.atelier.test/sunrise.png",
	})
	require.NoError(t, err)
	require.True(t, item.Public)
	require.Equal(t, 0, item.Position)

	_, err = service.AddItem(context.Background(), portfolio.ID, gallery.ID, CreateItemInput{})
	require.Error(t, err)

	title := "Sunset"
	public := false
	updated, err := service.UpdateItem(context.Background(), portfolio.ID, gallery.ID, item.ID, UpdateItemInput{
		Title:  &title,
		Public: &public,
	})
	require.NoError(t, err)
	require.Equal(t, "Sunset", updated.Title)
	require.False(t, updated.Public)

	require.NoError(t, service.DeleteItem(context.Background(), portfolio.ID, gallery.ID, item.ID))
	err = service.DeleteItem(context.Background(), portfolio.ID, gallery.ID, item.ID)
	require.ErrorIs(t, err, ErrGalleryItemNotFound)
}

func TestGalleryItemCreatedPrivateStaysPrivate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewGalleryService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	gallery, err := service.Create(context.Background(), portfolio.ID, CreateGalleryInput{Name: "Sketches"})
	require.NoError(t, err)

	private := false
	item, err := service.AddItem(context.Background(), portfolio.ID, gallery.ID, CreateItemInput{
		Title:    "Work in progress",
		ImageURL: "https://cdn.atelier.test/wip.png",
		Public:   &private,
	})
	require.NoError(t, err)
	require.False(t, item.Public)

	// The stored row keeps the explicit false; a column default must not
	// overwrite it on insert.
	var stored models.GalleryItem
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	require.False(t, stored.Public)
}
