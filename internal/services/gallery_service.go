package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/models"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
)

var (
	// ErrGalleryNotFound indicates the gallery does not exist or belongs to another portfolio.
	ErrGalleryNotFound = apperrors.New("GALLERY_NOT_FOUND", "Gallery not found", http.StatusNotFound)
	// ErrGalleryItemNotFound indicates the artwork entry does not exist.
	ErrGalleryItemNotFound = apperrors.New("GALLERY_ITEM_NOT_FOUND", "Gallery item not found", http.StatusNotFound)
	// ErrGalleryReserved blocks mutation of the hidden commissions gallery through the normal CRUD surface.
	ErrGalleryReserved = apperrors.New("GALLERY_RESERVED", "This gallery is managed by the system", http.StatusBadRequest)
)

// GalleryService manages galleries and their artwork entries. All operations
// are scoped by portfolio id so ownership checks happen in the query itself.
type GalleryService struct {
	db *gorm.DB
}

// NewGalleryService constructs a GalleryService.
func NewGalleryService(db *gorm.DB) (*GalleryService, error) {
	if db == nil {
		return nil, errors.New("gallery service: db is required")
	}
	return &GalleryService{db: db}, nil
}

// CreateGalleryInput describes a new gallery.
type CreateGalleryInput struct {
	Name        string
	Description string
}

// Create appends a gallery at the end of the portfolio's ordering.
func (s *GalleryService) Create(ctx context.Context, portfolioID string, input CreateGalleryInput) (*models.Gallery, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("gallery name is required")
	}
	if strings.EqualFold(name, models.CommissionsGalleryName) {
		return nil, ErrGalleryReserved
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&models.Gallery{}).
		Where("portfolio_id = ?", portfolioID).
		Count(&position).Error; err != nil {
		return nil, fmt.Errorf("gallery service: count: %w", err)
	}

	gallery := models.Gallery{
		PortfolioID: portfolioID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Position:    int(position),
	}
	if err := s.db.WithContext(ctx).Create(&gallery).Error; err != nil {
		return nil, fmt.Errorf("gallery service: create: %w", err)
	}
	return &gallery, nil
}

// List returns the portfolio's visible galleries in display order, including items.
func (s *GalleryService) List(ctx context.Context, portfolioID string, includeHidden bool) ([]models.Gallery, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("portfolio_id = ?", portfolioID).
		Order("position ASC")
	if !includeHidden {
		query = query.Where("hidden = ?", false)
	}

	var galleries []models.Gallery
	if err := query.Find(&galleries).Error; err != nil {
		return nil, fmt.Errorf("gallery service: list: %w", err)
	}
	return galleries, nil
}

// Get loads one gallery owned by the portfolio.
func (s *GalleryService) Get(ctx context.Context, portfolioID, galleryID string) (*models.Gallery, error) {
	ctx = ensureContext(ctx)

	var gallery models.Gallery
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&gallery, "id = ? AND portfolio_id = ?", galleryID, portfolioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGalleryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gallery service: get: %w", err)
	}
	return &gallery, nil
}

// UpdateGalleryInput enumerates mutable gallery attributes.
type UpdateGalleryInput struct {
	Name        *string
	Description *string
	Position    *int
}

// Update applies partial changes to a gallery. The hidden commissions gallery
// is off limits.
func (s *GalleryService) Update(ctx context.Context, portfolioID, galleryID string, input UpdateGalleryInput) (*models.Gallery, error) {
	ctx = ensureContext(ctx)

	gallery, err := s.Get(ctx, portfolioID, galleryID)
	if err != nil {
		return nil, err
	}
	if gallery.Hidden {
		return nil, ErrGalleryReserved
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("gallery name is required")
		}
		if strings.EqualFold(name, models.CommissionsGalleryName) {
			return nil, ErrGalleryReserved
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(gallery).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("gallery service: update: %w", err)
		}
	}
	return s.Get(ctx, portfolioID, galleryID)
}

// Delete removes a gallery and its items. The commissions gallery cannot be deleted.
func (s *GalleryService) Delete(ctx context.Context, portfolioID, galleryID string) error {
	ctx = ensureContext(ctx)

	gallery, err := s.Get(ctx, portfolioID, galleryID)
	if err != nil {
		return err
	}
	if gallery.Hidden {
		return ErrGalleryReserved
	}

	if err := s.db.WithContext(ctx).Delete(&models.Gallery{}, "id = ?", gallery.ID).Error; err != nil {
		return fmt.Errorf("gallery service: delete: %w", err)
	}
	return nil
}

// CreateItemInput describes a new artwork entry.
type CreateItemInput struct {
	Title        string
	Description  string
	ImageURL     string
	ThumbnailURL string
	Public       *bool
}

// AddItem appends an artwork entry to a gallery.
func (s *GalleryService) AddItem(ctx context.Context, portfolioID, galleryID string, input CreateItemInput) (*models.GalleryItem, error) {
	ctx = ensureContext(ctx)

	gallery, err := s.Get(ctx, portfolioID, galleryID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		return nil, apperrors.NewBadRequest("image_url is required")
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&models.GalleryItem{}).
		Where("gallery_id = ?", gallery.ID).
		Count(&position).Error; err != nil {
		return nil, fmt.Errorf("gallery service: count items: %w", err)
	}

	item := models.GalleryItem{
		GalleryID:    gallery.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		Position:     int(position),
		Public:       true,
	}
	if input.Public != nil {
		item.Public = *input.Public
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("gallery service: add item: %w", err)
	}
	return &item, nil
}

// UpdateItemInput enumerates mutable artwork attributes.
type UpdateItemInput struct {
	Title       *string
	Description *string
	Position    *int
	Public      *bool
}

// UpdateItem applies partial changes to an artwork entry.
func (s *GalleryService) UpdateItem(ctx context.Context, portfolioID, galleryID, itemID string, input UpdateItemInput) (*models.GalleryItem, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, portfolioID, galleryID); err != nil {
		return nil, err
	}

	var item models.GalleryItem
	err := s.db.WithContext(ctx).First(&item, "id = ? AND gallery_id = ?", itemID, galleryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGalleryItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gallery service: get item: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}
	if input.Public != nil {
		updates["public"] = *input.Public
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("gallery service: update item: %w", err)
		}
	}
	return &item, nil
}

// DeleteItem removes an artwork entry.
func (s *GalleryService) DeleteItem(ctx context.Context, portfolioID, galleryID, itemID string) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, portfolioID, galleryID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Delete(&models.GalleryItem{}, "id = ? AND gallery_id = ?", itemID, galleryID)
	if res.Error != nil {
		return fmt.Errorf("gallery service: delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrGalleryItemNotFound
	}
	return nil
}
