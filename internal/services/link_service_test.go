package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/atelier/internal/database/testutil"
)

func TestLinkLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewLinkService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	first, err := service.Create(context.Background(), portfolio.ID, CreateLinkInput{
		Title: "Twitter",
		URL:   "https://twitter.com/jane",
	})
	require.NoError(t, err)
	require.Equal(t, 0, first.Position)

	second, err := service.Create(context.Background(), portfolio.ID, CreateLinkInput{
		Title: "Shop",
		URL:   "https://shop.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, 1, second.Position)

	links, err := service.List(context.Background(), portfolio.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, "Twitter", links[0].Title)

	title := "X"
	updated, err := service.Update(context.Background(), portfolio.ID, first.ID, UpdateLinkInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "X", updated.Title)

	require.NoError(t, service.Delete(context.Background(), portfolio.ID, first.ID))
	err = service.Delete(context.Background(), portfolio.ID, first.ID)
	require.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewLinkService(db)
	require.NoError(t, err)
	portfolio := seedPortfolio(t, db)

	_, err = service.Create(context.Background(), portfolio.ID, CreateLinkInput{URL: "https://example.com"})
	require.Error(t, err)

	_, err = service.Create(context.Background(), portfolio.ID, CreateLinkInput{Title: "Bad", URL: "javascript:alert(1)"})
	require.Error(t, err)

	_, err = service.Create(context.Background(), portfolio.ID, CreateLinkInput{Title: "Bad", URL: "not a url"})
	require.Error(t, err)
}
