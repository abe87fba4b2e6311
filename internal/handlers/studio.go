package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/internal/storage"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

// StudioHandler serves the artist's own management surface. Every route
// operates on the caller's portfolio; ownership is established once per
// request by resolving the portfolio from the authenticated user.
type StudioHandler struct {
	portfolios  *services.PortfolioService
	galleries   *services.GalleryService
	commissions *services.CommissionService
	links       *services.LinkService
	uploads     *storage.ImagePipeline
}

// NewStudioHandler constructs a StudioHandler. The upload pipeline is optional;
// without it the uploads endpoint reports that storage is not configured.
func NewStudioHandler(
	portfolios *services.PortfolioService,
	galleries *services.GalleryService,
	commissions *services.CommissionService,
	links *services.LinkService,
	uploads *storage.ImagePipeline,
) (*StudioHandler, error) {
	if portfolios == nil {
		return nil, errors.New("studio handler: portfolio service is required")
	}
	if galleries == nil {
		return nil, errors.New("studio handler: gallery service is required")
	}
	if commissions == nil {
		return nil, errors.New("studio handler: commission service is required")
	}
	if links == nil {
		return nil, errors.New("studio handler: link service is required")
	}
	return &StudioHandler{
		portfolios:  portfolios,
		galleries:   galleries,
		commissions: commissions,
		links:       links,
		uploads:     uploads,
	}, nil
}

// portfolioFor resolves the caller's portfolio, creating it on first access.
// On failure the error response has already been written.
func (h *StudioHandler) portfolioFor(c *gin.Context) (*models.Portfolio, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}

	portfolio, err := h.portfolios.EnsureForUser(requestContext(c), user)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return portfolio, true
}

// GET /api/studio/portfolio
func (h *StudioHandler) GetPortfolio(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, portfolio)
}

type updateSlugRequest struct {
	Slug string `json:"slug" validate:"required,min=3,max=64"`
}

// PUT /api/studio/portfolio/slug
func (h *StudioHandler) UpdateSlug(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateSlugRequest
	if !bindAndValidate(c, &body) {
		return
	}

	updated, err := h.portfolios.UpdateSlug(requestContext(c), portfolio.ID, body.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

type updateBrandingRequest struct {
	DisplayName    *string `json:"display_name"`
	AccentColor    *string `json:"accent_color"`
	ColorMode      *string `json:"color_mode"`
	LogoURL        *string `json:"logo_url"`
	HeroImageURL   *string `json:"hero_image_url"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	FooterText     *string `json:"footer_text"`
}

// PATCH /api/studio/portfolio
func (h *StudioHandler) UpdateBranding(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateBrandingRequest
	if !bindAndValidate(c, &body) {
		return
	}

	updated, err := h.portfolios.UpdateBranding(requestContext(c), portfolio.ID, services.UpdateBrandingInput{
		DisplayName:    body.DisplayName,
		AccentColor:    body.AccentColor,
		ColorMode:      body.ColorMode,
		LogoURL:        body.LogoURL,
		HeroImageURL:   body.HeroImageURL,
		PrimaryColor:   body.PrimaryColor,
		SecondaryColor: body.SecondaryColor,
		FooterText:     body.FooterText,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}
