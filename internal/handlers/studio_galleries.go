package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/pkg/response"
)

type createGalleryRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// POST /api/studio/galleries
func (h *StudioHandler) CreateGallery(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body createGalleryRequest
	if !bindAndValidate(c, &body) {
		return
	}

	gallery, err := h.galleries.Create(requestContext(c), portfolio.ID, services.CreateGalleryInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gallery)
}

// GET /api/studio/galleries
//
// The studio view includes the hidden commissions gallery so the artist can
// manage its reference art.
func (h *StudioHandler) ListGalleries(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	galleries, err := h.galleries.List(requestContext(c), portfolio.ID, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, galleries)
}

// GET /api/studio/galleries/:galleryID
func (h *StudioHandler) GetGallery(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	gallery, err := h.galleries.Get(requestContext(c), portfolio.ID, c.Param("galleryID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gallery)
}

type updateGalleryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

// PATCH /api/studio/galleries/:galleryID
func (h *StudioHandler) UpdateGallery(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateGalleryRequest
	if !bindAndValidate(c, &body) {
		return
	}

	gallery, err := h.galleries.Update(requestContext(c), portfolio.ID, c.Param("galleryID"), services.UpdateGalleryInput{
		Name:        body.Name,
		Description: body.Description,
		Position:    body.Position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gallery)
}

// DELETE /api/studio/galleries/:galleryID
func (h *StudioHandler) DeleteGallery(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	if err := h.galleries.Delete(requestContext(c), portfolio.ID, c.Param("galleryID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type createItemRequest struct {
	Title        string `json:"title" validate:"max=200"`
	Description  string `json:"description" validate:"max=2000"`
	ImageURL     string `json:"image_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	Public       *bool  `json:"public"`
}

// POST /api/studio/galleries/:galleryID/items
func (h *StudioHandler) AddGalleryItem(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body createItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.galleries.AddItem(requestContext(c), portfolio.ID, c.Param("galleryID"), services.CreateItemInput{
		Title:        body.Title,
		Description:  body.Description,
		ImageURL:     body.ImageURL,
		ThumbnailURL: body.ThumbnailURL,
		Public:       body.Public,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	Public      *bool   `json:"public"`
}

// PATCH /api/studio/galleries/:galleryID/items/:itemID
func (h *StudioHandler) UpdateGalleryItem(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.galleries.UpdateItem(requestContext(c), portfolio.ID, c.Param("galleryID"), c.Param("itemID"), services.UpdateItemInput{
		Title:       body.Title,
		Description: body.Description,
		Position:    body.Position,
		Public:      body.Public,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// DELETE /api/studio/galleries/:galleryID/items/:itemID
func (h *StudioHandler) DeleteGalleryItem(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	if err := h.galleries.DeleteItem(requestContext(c), portfolio.ID, c.Param("galleryID"), c.Param("itemID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
