package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/models"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
)

var (
	// ErrPriceNotFound indicates the price tier does not exist on the portfolio.
	ErrPriceNotFound = apperrors.New("PRICE_NOT_FOUND", "Commission price not found", http.StatusNotFound)
	// ErrCommissionNotFound indicates the commission request does not exist.
	ErrCommissionNotFound = apperrors.New("COMMISSION_NOT_FOUND", "Commission not found", http.StatusNotFound)
	// ErrCommissionClosed rejects status changes on terminal commissions.
	ErrCommissionClosed = apperrors.New("COMMISSION_CLOSED", "Commission is already closed", http.StatusBadRequest)
)

// CommissionService manages price tiers and the request queue.
type CommissionService struct {
	db *gorm.DB
}

// NewCommissionService constructs a CommissionService.
func NewCommissionService(db *gorm.DB) (*CommissionService, error) {
	if db == nil {
		return nil, errors.New("commission service: db is required")
	}
	return &CommissionService{db: db}, nil
}

// CreatePriceInput describes a new price tier.
type CreatePriceInput struct {
	Title       string
	Description string
	AmountCents int64
	Currency    string
}

// CreatePrice appends a price tier at the end of the portfolio's list.
func (s *CommissionService) CreatePrice(ctx context.Context, portfolioID string, input CreatePriceInput) (*models.CommissionPrice, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("price title is required")
	}
	if input.AmountCents < 0 {
		return nil, apperrors.NewBadRequest("amount must not be negative")
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&models.CommissionPrice{}).
		Where("portfolio_id = ?", portfolioID).
		Count(&position).Error; err != nil {
		return nil, fmt.Errorf("commission service: count prices: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	price := models.CommissionPrice{
		PortfolioID: portfolioID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		AmountCents: input.AmountCents,
		Currency:    currency,
		Position:    int(position),
		Active:      true,
	}
	if err := s.db.WithContext(ctx).Create(&price).Error; err != nil {
		return nil, fmt.Errorf("commission service: create price: %w", err)
	}
	return &price, nil
}

// ListPrices returns the portfolio's price tiers in display order.
func (s *CommissionService) ListPrices(ctx context.Context, portfolioID string, activeOnly bool) ([]models.CommissionPrice, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("position ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var prices []models.CommissionPrice
	if err := query.Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("commission service: list prices: %w", err)
	}
	return prices, nil
}

// UpdatePriceInput enumerates mutable price attributes.
type UpdatePriceInput struct {
	Title       *string
	Description *string
	AmountCents *int64
	Currency    *string
	Position    *int
	Active      *bool
}

// UpdatePrice applies partial changes to a price tier.
func (s *CommissionService) UpdatePrice(ctx context.Context, portfolioID, priceID string, input UpdatePriceInput) (*models.CommissionPrice, error) {
	ctx = ensureContext(ctx)

	var price models.CommissionPrice
	err := s.db.WithContext(ctx).First(&price, "id = ? AND portfolio_id = ?", priceID, portfolioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPriceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("commission service: get price: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("price title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.AmountCents != nil {
		if *input.AmountCents < 0 {
			return nil, apperrors.NewBadRequest("amount must not be negative")
		}
		updates["amount_cents"] = *input.AmountCents
	}
	if input.Currency != nil {
		updates["currency"] = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&price).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("commission service: update price: %w", err)
		}
	}
	return &price, nil
}

// DeletePrice removes a price tier.
func (s *CommissionService) DeletePrice(ctx context.Context, portfolioID, priceID string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Delete(&models.CommissionPrice{}, "id = ? AND portfolio_id = ?", priceID, portfolioID)
	if res.Error != nil {
		return fmt.Errorf("commission service: delete price: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPriceNotFound
	}
	return nil
}

// RequestInput describes a visitor's commission request.
type RequestInput struct {
	ClientName  string
	ClientEmail string
	Message     string
	PriceID     string
	Details     map[string]any
}

// SubmitRequest appends a commission request to the artist's queue.
func (s *CommissionService) SubmitRequest(ctx context.Context, portfolioID string, input RequestInput) (*models.Commission, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.ClientName)
	email := normaliseEmail(input.ClientEmail)
	if name == "" {
		return nil, apperrors.NewBadRequest("client name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("client email is required")
	}

	var priceID *string
	if trimmed := strings.TrimSpace(input.PriceID); trimmed != "" {
		var price models.CommissionPrice
		err := s.db.WithContext(ctx).First(&price, "id = ? AND portfolio_id = ? AND active = ?", trimmed, portfolioID, true).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("commission service: check price: %w", err)
		}
		priceID = &price.ID
	}

	var details datatypes.JSON
	if len(input.Details) > 0 {
		encoded, err := datatypes.NewJSONType(input.Details).MarshalJSON()
		if err != nil {
			return nil, apperrors.NewBadRequest("details payload is not valid JSON")
		}
		details = datatypes.JSON(encoded)
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("portfolio_id = ? AND status = ?", portfolioID, models.CommissionPending).
		Count(&position).Error; err != nil {
		return nil, fmt.Errorf("commission service: count queue: %w", err)
	}

	commission := models.Commission{
		PortfolioID: portfolioID,
		PriceID:     priceID,
		ClientName:  name,
		ClientEmail: email,
		Message:     strings.TrimSpace(input.Message),
		Details:     details,
		Status:      models.CommissionPending,
		Position:    int(position),
	}
	if err := s.db.WithContext(ctx).Create(&commission).Error; err != nil {
		return nil, fmt.Errorf("commission service: submit: %w", err)
	}
	return &commission, nil
}

// ListQueue returns the portfolio's commission requests, optionally filtered by status.
func (s *CommissionService) ListQueue(ctx context.Context, portfolioID string, status string) ([]models.Commission, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("Price").
		Where("portfolio_id = ?", portfolioID).
		Order("position ASC, created_at ASC")
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var commissions []models.Commission
	if err := query.Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("commission service: list queue: %w", err)
	}
	return commissions, nil
}

// UpdateStatus advances a commission through the queue state machine.
// DECLINED and COMPLETED are terminal.
func (s *CommissionService) UpdateStatus(ctx context.Context, portfolioID, commissionID string, status models.CommissionStatus) (*models.Commission, error) {
	ctx = ensureContext(ctx)

	switch status {
	case models.CommissionAccepted, models.CommissionDeclined, models.CommissionCompleted:
	default:
		return nil, apperrors.NewBadRequest("invalid commission status")
	}

	var commission models.Commission
	err := s.db.WithContext(ctx).First(&commission, "id = ? AND portfolio_id = ?", commissionID, portfolioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("commission service: get: %w", err)
	}

	if commission.Status == models.CommissionDeclined || commission.Status == models.CommissionCompleted {
		return nil, ErrCommissionClosed
	}

	if err := s.db.WithContext(ctx).Model(&commission).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("commission service: update status: %w", err)
	}
	commission.Status = status
	return &commission, nil
}
