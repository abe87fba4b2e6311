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
	// ErrPortfolioNotFound indicates the requested portfolio does not exist.
	ErrPortfolioNotFound = apperrors.New("PORTFOLIO_NOT_FOUND", "Portfolio not found", http.StatusNotFound)
	// ErrAdminHasNoPortfolio guards the invariant that admin accounts own no portfolio.
	ErrAdminHasNoPortfolio = apperrors.New("ADMIN_NO_PORTFOLIO", "Admin accounts do not have portfolios", http.StatusBadRequest)
)

// PortfolioService owns the portfolio lifecycle including slug allocation and
// the hidden commissions gallery.
type PortfolioService struct {
	db *gorm.DB
}

// NewPortfolioService constructs a PortfolioService.
func NewPortfolioService(db *gorm.DB) (*PortfolioService, error) {
	if db == nil {
		return nil, errors.New("portfolio service: db is required")
	}
	return &PortfolioService{db: db}, nil
}

// EnsureForUser returns the user's portfolio, creating it on first access.
// The slug is derived from the email local part with numeric-suffix collision
// resolution; the unique index decides races. The hidden commissions gallery
// is re-checked on every call so a failure between the two creation steps
// heals on the next visit.
func (s *PortfolioService) EnsureForUser(ctx context.Context, user *models.User) (*models.Portfolio, error) {
	ctx = ensureContext(ctx)
	if user == nil {
		return nil, errors.New("portfolio service: user is required")
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminHasNoPortfolio
	}

	var portfolio models.Portfolio
	err := s.db.WithContext(ctx).First(&portfolio, "user_id = ?", user.ID).Error
	switch {
	case err == nil:
		if err := s.ensureCommissionsGallery(ctx, portfolio.ID); err != nil {
			return nil, err
		}
		return &portfolio, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("portfolio service: find: %w", err)
	}

	base := DeriveSlugBase(user.Email)
	displayName := user.Name
	if strings.TrimSpace(displayName) == "" {
		displayName = base
	}

	exists := func(ctx context.Context, slug string) (bool, error) {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Portfolio{}).Where("slug = ?", slug).Count(&count).Error
		return count > 0, err
	}
	create := func(ctx context.Context, slug string) error {
		portfolio = models.Portfolio{
			Slug:        slug,
			DisplayName: displayName,
			UserID:      user.ID,
		}
		return s.db.WithContext(ctx).Create(&portfolio).Error
	}

	if _, err := AllocateSlugWithRetry(ctx, base, exists, create); err != nil {
		return nil, fmt.Errorf("portfolio service: allocate slug: %w", err)
	}

	if err := s.ensureCommissionsGallery(ctx, portfolio.ID); err != nil {
		return nil, err
	}

	return &portfolio, nil
}

// GetByUserID loads the portfolio owned by a user.
func (s *PortfolioService) GetByUserID(ctx context.Context, userID string) (*models.Portfolio, error) {
	ctx = ensureContext(ctx)

	var portfolio models.Portfolio
	err := s.db.WithContext(ctx).First(&portfolio, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("portfolio service: get by user: %w", err)
	}
	return &portfolio, nil
}

// GetPublicBySlug assembles the public portfolio page: visible galleries with
// public items, active price tiers, and links, all position ordered.
func (s *PortfolioService) GetPublicBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	ctx = ensureContext(ctx)

	var portfolio models.Portfolio
	err := s.db.WithContext(ctx).
		Preload("Galleries", func(db *gorm.DB) *gorm.DB {
			return db.Where("hidden = ?", false).Order("position ASC")
		}).
		Preload("Galleries.Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("public = ?", true).Order("position ASC")
		}).
		Preload("CommissionPrices", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("position ASC")
		}).
		Preload("Links", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&portfolio, "slug = ?", strings.ToLower(strings.TrimSpace(slug))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("portfolio service: get by slug: %w", err)
	}
	return &portfolio, nil
}

// UpdateSlug changes the portfolio slug subject to format, reserved-word, and
// uniqueness checks. A lost uniqueness race surfaces as ErrSlugTaken; chosen
// slugs are never silently suffixed.
func (s *PortfolioService) UpdateSlug(ctx context.Context, portfolioID, slug string) (*models.Portfolio, error) {
	ctx = ensureContext(ctx)

	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	var portfolio models.Portfolio
	if err := s.db.WithContext(ctx).First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("portfolio service: get: %w", err)
	}
	if portfolio.Slug == slug {
		return &portfolio, nil
	}

	if err := s.db.WithContext(ctx).Model(&portfolio).Update("slug", slug).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("portfolio service: update slug: %w", err)
	}

	portfolio.Slug = slug
	return &portfolio, nil
}

// UpdateBrandingInput enumerates mutable presentation attributes.
type UpdateBrandingInput struct {
	DisplayName    *string
	AccentColor    *string
	ColorMode      *string
	LogoURL        *string
	HeroImageURL   *string
	PrimaryColor   *string
	SecondaryColor *string
	FooterText     *string
}

// UpdateBranding applies partial branding changes.
func (s *PortfolioService) UpdateBranding(ctx context.Context, portfolioID string, input UpdateBrandingInput) (*models.Portfolio, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("display_name", input.DisplayName)
	set("accent_color", input.AccentColor)
	set("color_mode", input.ColorMode)
	set("logo_url", input.LogoURL)
	set("hero_image_url", input.HeroImageURL)
	set("primary_color", input.PrimaryColor)
	set("secondary_color", input.SecondaryColor)
	set("footer_text", input.FooterText)

	var portfolio models.Portfolio
	if err := s.db.WithContext(ctx).First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("portfolio service: get: %w", err)
	}

	if len(updates) == 0 {
		return &portfolio, nil
	}

	if err := s.db.WithContext(ctx).Model(&portfolio).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("portfolio service: update branding: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		return nil, fmt.Errorf("portfolio service: reload: %w", err)
	}
	return &portfolio, nil
}

// Delete removes a portfolio and, through cascade constraints, all owned
// galleries, items, prices, commissions, and links.
func (s *PortfolioService) Delete(ctx context.Context, portfolioID string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Delete(&models.Portfolio{}, "id = ?", portfolioID)
	if res.Error != nil {
		return fmt.Errorf("portfolio service: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

func (s *PortfolioService) ensureCommissionsGallery(ctx context.Context, portfolioID string) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Gallery{}).
		Where("portfolio_id = ? AND name = ? AND hidden = ?", portfolioID, models.CommissionsGalleryName, true).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("portfolio service: check commissions gallery: %w", err)
	}
	if count > 0 {
		return nil
	}

	gallery := models.Gallery{
		PortfolioID: portfolioID,
		Name:        models.CommissionsGalleryName,
		Hidden:      true,
	}
	if err := s.db.WithContext(ctx).Create(&gallery).Error; err != nil {
		return fmt.Errorf("portfolio service: create commissions gallery: %w", err)
	}
	return nil
}
