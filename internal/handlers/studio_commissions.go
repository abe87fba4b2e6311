package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/pkg/response"
)

type createPriceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AmountCents int64  `json:"amount_cents" validate:"min=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

// POST /api/studio/prices
func (h *StudioHandler) CreatePrice(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body createPriceRequest
	if !bindAndValidate(c, &body) {
		return
	}

	price, err := h.commissions.CreatePrice(requestContext(c), portfolio.ID, services.CreatePriceInput{
		Title:       body.Title,
		Description: body.Description,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, price)
}

// GET /api/studio/prices
func (h *StudioHandler) ListPrices(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	prices, err := h.commissions.ListPrices(requestContext(c), portfolio.ID, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, prices)
}

type updatePriceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AmountCents *int64  `json:"amount_cents"`
	Currency    *string `json:"currency"`
	Position    *int    `json:"position"`
	Active      *bool   `json:"active"`
}

// PATCH /api/studio/prices/:priceID
func (h *StudioHandler) UpdatePrice(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updatePriceRequest
	if !bindAndValidate(c, &body) {
		return
	}

	price, err := h.commissions.UpdatePrice(requestContext(c), portfolio.ID, c.Param("priceID"), services.UpdatePriceInput{
		Title:       body.Title,
		Description: body.Description,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		Position:    body.Position,
		Active:      body.Active,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, price)
}

// DELETE /api/studio/prices/:priceID
func (h *StudioHandler) DeletePrice(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	if err := h.commissions.DeletePrice(requestContext(c), portfolio.ID, c.Param("priceID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/studio/commissions?status=
func (h *StudioHandler) ListCommissions(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	queue, err := h.commissions.ListQueue(requestContext(c), portfolio.ID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, queue)
}

type updateCommissionRequest struct {
	Status string `json:"status" validate:"required"`
}

// PATCH /api/studio/commissions/:commissionID
func (h *StudioHandler) UpdateCommissionStatus(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateCommissionRequest
	if !bindAndValidate(c, &body) {
		return
	}

	status := models.CommissionStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
	commission, err := h.commissions.UpdateStatus(requestContext(c), portfolio.ID, c.Param("commissionID"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, commission)
}
