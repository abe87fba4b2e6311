package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/models"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
)

// ErrLinkNotFound indicates the link does not exist on the portfolio.
var ErrLinkNotFound = apperrors.New("LINK_NOT_FOUND", "Link not found", http.StatusNotFound)

// LinkService manages the outbound links shown on a portfolio page.
type LinkService struct {
	db *gorm.DB
}

// NewLinkService constructs a LinkService.
func NewLinkService(db *gorm.DB) (*LinkService, error) {
	if db == nil {
		return nil, errors.New("link service: db is required")
	}
	return &LinkService{db: db}, nil
}

// CreateLinkInput describes a new link.
type CreateLinkInput struct {
	Title string
	URL   string
}

// Create appends a link at the end of the portfolio's list.
func (s *LinkService) Create(ctx context.Context, portfolioID string, input CreateLinkInput) (*models.Link, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	target := strings.TrimSpace(input.URL)
	if title == "" {
		return nil, apperrors.NewBadRequest("link title is required")
	}
	if err := validateLinkURL(target); err != nil {
		return nil, err
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&models.Link{}).
		Where("portfolio_id = ?", portfolioID).
		Count(&position).Error; err != nil {
		return nil, fmt.Errorf("link service: count: %w", err)
	}

	link := models.Link{
		PortfolioID: portfolioID,
		Title:       title,
		URL:         target,
		Position:    int(position),
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, fmt.Errorf("link service: create: %w", err)
	}
	return &link, nil
}

// List returns the portfolio's links in display order.
func (s *LinkService) List(ctx context.Context, portfolioID string) ([]models.Link, error) {
	ctx = ensureContext(ctx)

	var links []models.Link
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("position ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("link service: list: %w", err)
	}
	return links, nil
}

// UpdateLinkInput enumerates mutable link attributes.
type UpdateLinkInput struct {
	Title    *string
	URL      *string
	Position *int
}

// Update applies partial changes to a link.
func (s *LinkService) Update(ctx context.Context, portfolioID, linkID string, input UpdateLinkInput) (*models.Link, error) {
	ctx = ensureContext(ctx)

	var link models.Link
	err := s.db.WithContext(ctx).First(&link, "id = ? AND portfolio_id = ?", linkID, portfolioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("link service: get: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("link title is required")
		}
		updates["title"] = title
	}
	if input.URL != nil {
		target := strings.TrimSpace(*input.URL)
		if err := validateLinkURL(target); err != nil {
			return nil, err
		}
		updates["url"] = target
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&link).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("link service: update: %w", err)
		}
	}
	return &link, nil
}

// Delete removes a link.
func (s *LinkService) Delete(ctx context.Context, portfolioID, linkID string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Delete(&models.Link{}, "id = ? AND portfolio_id = ?", linkID, portfolioID)
	if res.Error != nil {
		return fmt.Errorf("link service: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func validateLinkURL(raw string) error {
	if raw == "" {
		return apperrors.NewBadRequest("link url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperrors.NewBadRequest("link url must be an absolute http(s) URL")
	}
	return nil
}
