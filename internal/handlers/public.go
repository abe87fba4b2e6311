package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/pkg/response"
)

// PublicHandler serves the unauthenticated portfolio surface: the assembled
// portfolio page and the commission request intake.
type PublicHandler struct {
	portfolios  *services.PortfolioService
	commissions *services.CommissionService
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(portfolios *services.PortfolioService, commissions *services.CommissionService) (*PublicHandler, error) {
	if portfolios == nil {
		return nil, errors.New("public handler: portfolio service is required")
	}
	if commissions == nil {
		return nil, errors.New("public handler: commission service is required")
	}
	return &PublicHandler{portfolios: portfolios, commissions: commissions}, nil
}

// GET /api/public/portfolios/:slug
func (h *PublicHandler) GetPortfolio(c *gin.Context) {
	portfolio, err := h.portfolios.GetPublicBySlug(requestContext(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, portfolio)
}

type submitCommissionRequest struct {
	ClientName  string         `json:"client_name" validate:"required,max=200"`
	ClientEmail string         `json:"client_email" validate:"required,email"`
	Message     string         `json:"message" validate:"max=4000"`
	PriceID     string         `json:"price_id"`
	Details     map[string]any `json:"details"`
}

// POST /api/public/portfolios/:slug/commissions
func (h *PublicHandler) SubmitCommission(c *gin.Context) {
	portfolio, err := h.portfolios.GetPublicBySlug(requestContext(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var body submitCommissionRequest
	if !bindAndValidate(c, &body) {
		return
	}

	commission, err := h.commissions.SubmitRequest(requestContext(c), portfolio.ID, services.RequestInput{
		ClientName:  body.ClientName,
		ClientEmail: body.ClientEmail,
		Message:     body.Message,
		PriceID:     body.PriceID,
		Details:     body.Details,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, commission)
}
