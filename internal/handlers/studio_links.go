package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/pkg/response"
)

type createLinkRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

// POST /api/studio/links
func (h *StudioHandler) CreateLink(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body createLinkRequest
	if !bindAndValidate(c, &body) {
		return
	}

	link, err := h.links.Create(requestContext(c), portfolio.ID, services.CreateLinkInput{
		Title: body.Title,
		URL:   body.URL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, link)
}

// GET /api/studio/links
func (h *StudioHandler) ListLinks(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	links, err := h.links.List(requestContext(c), portfolio.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, links)
}

type updateLinkRequest struct {
	Title    *string `json:"title"`
	URL      *string `json:"url"`
	Position *int    `json:"position"`
}

// PATCH /api/studio/links/:linkID
func (h *StudioHandler) UpdateLink(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	var body updateLinkRequest
	if !bindAndValidate(c, &body) {
		return
	}

	link, err := h.links.Update(requestContext(c), portfolio.ID, c.Param("linkID"), services.UpdateLinkInput{
		Title:    body.Title,
		URL:      body.URL,
		Position: body.Position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, link)
}

// DELETE /api/studio/links/:linkID
func (h *StudioHandler) DeleteLink(c *gin.Context) {
	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	if err := h.links.Delete(requestContext(c), portfolio.ID, c.Param("linkID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
